package exp

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

// SummaryFileName is the persisted outcome record inside an experiment
// directory. Its absence marks the unit as incomplete.
const SummaryFileName = "summary_info.json"

// Summary is the recorded outcome of one unit's run. ErrMsg and StackTrace
// are pointers so "no error" serializes as null rather than "".
type Summary struct {
	ExpID      string  `json:"exp_id,omitempty"`
	CumReward  float64 `json:"cum_reward"`
	NSteps     int     `json:"n_steps,omitempty"`
	Terminated bool    `json:"terminated"`
	Truncated  bool    `json:"truncated,omitempty"`
	ErrMsg     *string `json:"err_msg"`
	StackTrace *string `json:"stack_trace"`
	ElapsedSec float64 `json:"elapsed_sec,omitempty"`
}

// HasError reports whether the run recorded a non-null error message.
func (s *Summary) HasError() bool {
	return s != nil && s.ErrMsg != nil
}

// ErrorStrings returns the recorded error message and stack trace, empty
// when null.
func (s *Summary) ErrorStrings() (errMsg, stackTrace string) {
	if s == nil {
		return "", ""
	}
	if s.ErrMsg != nil {
		errMsg = *s.ErrMsg
	}
	if s.StackTrace != nil {
		stackTrace = *s.StackTrace
	}
	return errMsg, stackTrace
}

// Save writes the summary into dir.
func (s *Summary) Save(dir string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, SummaryFileName), data, 0o644)
}

// LoadSummary reads a unit's summary from dir. Returns an error satisfying
// os.IsNotExist when the summary file is absent.
func LoadSummary(dir string) (*Summary, error) {
	data, err := os.ReadFile(filepath.Join(dir, SummaryFileName))
	if err != nil {
		return nil, err
	}
	var summary Summary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("parse %s in %s: %w", SummaryFileName, dir, err)
	}
	return &summary, nil
}
