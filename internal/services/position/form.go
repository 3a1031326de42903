package position

import (
	"context"
	"sync"
	"time"

	"github.com/tmcfarlane/folio/internal/models"
)

// FormState is the lifecycle of one entry form.
type FormState string

const (
	FormIdle       FormState = "idle"       // editable
	FormSubmitting FormState = "submitting" // chain in flight, submit disabled
	FormSucceeded  FormState = "succeeded"  // submit disabled until reset
	FormFailed     FormState = "failed"     // editable, may resubmit
)

// FormFields holds the in-progress entry values.
type FormFields struct {
	Stock     string                 `json:"stock"`
	Amount    float64                `json:"amount"`
	UnitPrice float64                `json:"unit_price"`
	Date      string                 `json:"date"`
	Portfolio models.PortfolioChoice `json:"portfolio"`
	Public    bool                   `json:"public"`
}

// FormController coordinates one form instance: field values, the
// submission lifecycle, and reset. Reset is an explicit command from
// the owning container, not a trigger flag the controller polls.
//
// Submissions run their chain without cancellation; an epoch counter
// taken at submit time lets a result that arrives after an intervening
// Reset be discarded instead of clobbering the cleared form.
type FormController struct {
	mu      sync.Mutex
	state   FormState
	fields  FormFields
	message string
	epoch   uint64
	now     func() time.Time
}

// NewFormController returns a controller with cleared fields.
func NewFormController() *FormController {
	c := &FormController{now: time.Now}
	c.clearLocked()
	c.state = FormIdle
	return c
}

// State returns the current lifecycle state.
func (c *FormController) State() FormState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Message returns the current success or error message.
func (c *FormController) Message() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.message
}

// Fields returns a copy of the current field values.
func (c *FormController) Fields() FormFields {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fields
}

// SetFields replaces the field values. Rejected while a submission is
// in flight or after success; the form must be reset first.
func (c *FormController) SetFields(f FormFields) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == FormSubmitting || c.state == FormSucceeded {
		return false
	}
	c.fields = f
	return true
}

// Submit runs fn (the validation/insert chain) with the current fields.
// Only one submission may be in flight; success freezes the form until
// Reset. If Reset fires while fn is running, the late result is dropped.
func (c *FormController) Submit(ctx context.Context, fn func(ctx context.Context, f FormFields) error) error {
	c.mu.Lock()
	if c.state == FormSubmitting || c.state == FormSucceeded {
		c.mu.Unlock()
		return nil
	}
	c.state = FormSubmitting
	c.message = ""
	fields := c.fields
	epoch := c.epoch
	c.mu.Unlock()

	err := fn(ctx, fields)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		// Form was reset while the chain was in flight; the response
		// refers to a stale context and must not update state.
		return err
	}

	if err != nil {
		c.state = FormFailed
		c.message = err.Error()
		return err
	}
	c.state = FormSucceeded
	c.message = "position recorded"
	return nil
}

// Reset clears every field to its default and returns the form to Idle
// from any state. Idempotent: a second Reset with no intervening edits
// leaves the same cleared state.
func (c *FormController) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.clearLocked()
	c.state = FormIdle
}

// clearLocked resets fields to defaults: empty ticker/amount/price,
// date = today, no portfolio selection, public flag true.
func (c *FormController) clearLocked() {
	c.fields = FormFields{
		Date:   c.now().UTC().Format("2006-01-02"),
		Public: true,
	}
	c.message = ""
}
