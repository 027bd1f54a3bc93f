package workflow

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"marketflow/pkg/model"
)

// catalogEntry carries the raw YAML shape of one workflow. The end
// date stays a string here because the catalog allows two formats.
type catalogEntry struct {
	model.Workflow `yaml:",inline"`
	EndDate        string `yaml:"end_date"`
}

// LoadCatalog reads a YAML workflow catalog. Missing triggers are
// defaulted from the last condition's close direction, missing IDs get
// a fresh UUID, and enum literals are validated so a bad catalog fails
// at load time rather than mid-evaluation.
func LoadCatalog(path string, log zerolog.Logger) ([]model.Workflow, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workflow catalog: %w", err)
	}
	var entries []catalogEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parsing workflow catalog: %w", err)
	}

	workflows := make([]model.Workflow, 0, len(entries))
	for _, entry := range entries {
		wf := entry.Workflow
		if wf.Name == "" {
			return nil, fmt.Errorf("workflow without a name in %s", path)
		}
		if len(wf.Conditions) == 0 {
			return nil, fmt.Errorf("workflow %s has no conditions", wf.Name)
		}
		if entry.EndDate != "" {
			end, err := parseCatalogDate(entry.EndDate)
			if err != nil {
				return nil, fmt.Errorf("workflow %s: %w", wf.Name, err)
			}
			wf.EndDate = &end
		}
		if wf.Trigger.Signal == "" {
			wf.Trigger = defaultTrigger(wf.Conditions[len(wf.Conditions)-1].Close.Direction)
			log.Debug().Str("workflow", wf.Name).Msg("trigger defaulted from close direction")
		}
		if wf.ID == "" {
			wf.ID = uuid.NewString()
		}
		if err := validateWorkflow(wf); err != nil {
			return nil, fmt.Errorf("workflow %s: %w", wf.Name, err)
		}
		workflows = append(workflows, wf)
	}
	log.Info().Int("count", len(workflows)).Str("path", path).Msg("workflow catalog loaded")
	return workflows, nil
}

// parseCatalogDate accepts both 2006/01/02 and 2006-01-02.
func parseCatalogDate(s string) (time.Time, error) {
	layout := "2006-01-02"
	if strings.Contains(s, "/") {
		layout = "2006/01/02"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid end date %q: %w", s, err)
	}
	return t, nil
}

// defaultTrigger builds the implicit breakout trigger for catalogs
// that only state a close condition. H1 regardless of the indicator's
// unit time.
func defaultTrigger(dir model.WorkflowDirection) model.Trigger {
	t := model.Trigger{
		UnitTime: model.H1,
		Signal:   model.SignalBreakout,
		Quantity: 0.1,
	}
	if dir == model.Below {
		t.Location = model.LocationLower
		t.OrderDirection = model.Sell
	} else {
		t.Location = model.LocationHigher
		t.OrderDirection = model.Buy
	}
	return t
}

func validateWorkflow(wf model.Workflow) error {
	for i, cond := range wf.Conditions {
		if _, err := model.ParseIndicatorType(string(cond.Indicator.Name)); err != nil {
			return fmt.Errorf("condition %d: %w", i, err)
		}
		if _, err := model.ParseWorkflowDirection(string(cond.Close.Direction)); err != nil {
			return fmt.Errorf("condition %d: %w", i, err)
		}
		if cond.Element != nil {
			if _, err := model.ParseWorkflowElement(string(*cond.Element)); err != nil {
				return fmt.Errorf("condition %d: %w", i, err)
			}
		}
	}
	if _, err := model.ParseWorkflowSignal(string(wf.Trigger.Signal)); err != nil {
		return err
	}
	if _, err := model.ParseWorkflowLocation(string(wf.Trigger.Location)); err != nil {
		return err
	}
	if _, err := model.ParseDirection(string(wf.Trigger.OrderDirection)); err != nil {
		return err
	}
	return nil
}
