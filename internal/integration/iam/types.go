package iam

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tombee/soarbridge/internal/operation"
	"github.com/tombee/soarbridge/internal/output"
)

// OutputsPrefix is the context path user results are stored under.
const OutputsPrefix = "IAM.Vendor"

// Action is a user lifecycle action.
type Action string

const (
	ActionGet     Action = "get"
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionEnable  Action = "enable"
	ActionDisable Action = "disable"
)

// Skip reasons and messages reported on user results.
const (
	ReasonCommandDisabled = "Command is disabled."
	ReasonUserNotFound    = "User does not exist"
	ReasonAlreadyDisabled = "User is already disabled or does not exist in the system."
)

// UserAppData is a user as the vendor application stores it.
type UserAppData struct {
	// ID is the vendor user identifier
	ID string

	// Username is the vendor login name
	Username string

	// Active reports whether the account is enabled
	Active bool

	// Data is the full vendor record
	Data map[string]interface{}
}

// UserClient is the set of vendor calls the user commands are built from.
// GetUser returns nil without error when no user matches.
type UserClient interface {
	Test(ctx context.Context) error
	GetUser(ctx context.Context, email string) (*UserAppData, error)
	CreateUser(ctx context.Context, data map[string]interface{}) (*UserAppData, error)
	UpdateUser(ctx context.Context, id string, data map[string]interface{}) (*UserAppData, error)
	EnableUser(ctx context.Context, id string) (*UserAppData, error)
	DisableUser(ctx context.Context, id string) (*UserAppData, error)
	GetAppFields(ctx context.Context) (map[string]string, error)
}

// UserResult is the outcome of one user action.
type UserResult struct {
	Brand        string                 `json:"brand"`
	Instance     string                 `json:"instanceName"`
	Action       Action                 `json:"action"`
	Success      bool                   `json:"success"`
	Active       *bool                  `json:"active,omitempty"`
	ID           string                 `json:"id,omitempty"`
	Username     string                 `json:"username,omitempty"`
	Email        string                 `json:"email,omitempty"`
	ErrorCode    int                    `json:"errorCode,omitempty"`
	ErrorMessage string                 `json:"errorMessage,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
	Skipped      bool                   `json:"skipped"`
	Reason       string                 `json:"reason,omitempty"`

	// UserProfile is the vendor record mapped back to the platform profile
	UserProfile map[string]interface{} `json:"user_profile,omitempty"`
}

// Failed reports whether the action failed. Skipped actions are not failures.
func (r *UserResult) Failed() bool {
	return !r.Success && !r.Skipped
}

// skip marks the result as a successful no-op.
func skip(action Action, reason string) *UserResult {
	return &UserResult{Action: action, Success: true, Skipped: true, Reason: reason}
}

// fromAppData builds a successful result for a vendor user.
func fromAppData(action Action, email string, user *UserAppData) *UserResult {
	active := user.Active
	return &UserResult{
		Action:   action,
		Success:  true,
		Active:   &active,
		ID:       user.ID,
		Username: user.Username,
		Email:    email,
		Details:  user.Data,
	}
}

var (
	resultHeaders = []string{"brand", "instanceName", "success", "active", "id", "username", "email", "errorCode", "errorMessage", "details"}
	skipHeaders   = []string{"brand", "instanceName", "skipped", "reason"}
)

// Entry renders the result as a platform entry.
func (r *UserResult) Entry() *operation.Entry {
	record := map[string]interface{}{
		"brand":        r.Brand,
		"instanceName": r.Instance,
		"success":      r.Success,
		"id":           r.ID,
		"username":     r.Username,
		"email":        r.Email,
		"errorMessage": r.ErrorMessage,
		"skipped":      r.Skipped,
		"reason":       r.Reason,
	}
	if r.Active != nil {
		record["active"] = *r.Active
	}
	if r.ErrorCode != 0 {
		record["errorCode"] = r.ErrorCode
	}
	if len(r.Details) > 0 {
		if b, err := json.Marshal(r.Details); err == nil {
			record["details"] = string(b)
		}
	}

	headers := resultHeaders
	if r.Skipped {
		headers = skipHeaders
	}
	title := fmt.Sprintf("%s User Results (%s)", titleCase(string(r.Action)), r.Brand)

	return &operation.Entry{
		ReadableOutput:  output.RecordsTable(title, headers, []map[string]interface{}{record}),
		OutputsPrefix:   OutputsPrefix,
		OutputsKeyField: "instanceName",
		Outputs:         r,
		Failed:          r.Failed(),
		StatusCode:      r.ErrorCode,
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
