package iam

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tombee/soarbridge/internal/jq"
	"github.com/tombee/soarbridge/internal/operation"
	"github.com/tombee/soarbridge/internal/operation/api"
)

// Settings switch individual lifecycle commands on or off.
type Settings struct {
	CreateEnabled     bool
	UpdateEnabled     bool
	EnableEnabled     bool
	DisableEnabled    bool
	CreateIfNotExists bool
}

// Commands implements the user lifecycle on top of a UserClient.
type Commands struct {
	client   UserClient
	mapper   *Mapper
	rule     *SkipRule
	fields   *jq.Extractor
	settings Settings
	logger   *slog.Logger
}

// NewCommands creates the lifecycle commands. fields supplies the error
// message expressions used by HandleError.
func NewCommands(client UserClient, mapper *Mapper, rule *SkipRule, fields *jq.Extractor, settings Settings, logger *slog.Logger) *Commands {
	if logger == nil {
		logger = slog.Default()
	}
	return &Commands{
		client:   client,
		mapper:   mapper,
		rule:     rule,
		fields:   fields,
		settings: settings,
		logger:   logger,
	}
}

// userInput is the parsed argument set shared by the lifecycle commands.
type userInput struct {
	profile     map[string]interface{}
	email       string
	allowEnable bool
}

// parseInput reads user-profile, email and allow-enable. It fails before
// any vendor call when no email can be found.
func parseInput(args map[string]interface{}) (*userInput, error) {
	profile, err := api.ArgToObject(args["user-profile"])
	if err != nil {
		return nil, invalidArgument("user-profile", err.Error())
	}
	if profile == nil {
		profile = map[string]interface{}{}
	}

	email := profileEmail(profile)
	if email == "" {
		email = strings.TrimSpace(api.ArgString(args["email"]))
	}
	if email == "" {
		return nil, invalidArgument("user-profile", "an email is required in user-profile or the email argument")
	}

	allowEnable, err := api.ArgToBool(args["allow-enable"], false)
	if err != nil {
		return nil, invalidArgument("allow-enable", err.Error())
	}

	return &userInput{profile: profile, email: email, allowEnable: allowEnable}, nil
}

func profileEmail(profile map[string]interface{}) string {
	for k, v := range profile {
		if strings.EqualFold(k, "email") {
			return strings.TrimSpace(jq.Stringify(v))
		}
	}
	return ""
}

func invalidArgument(name, message string) *operation.Error {
	return &operation.Error{
		Type:        operation.ErrorTypeValidation,
		Message:     fmt.Sprintf("invalid argument %s: %s", name, message),
		SuggestText: `pass --arg user-profile='{"email":"user@example.com"}'`,
	}
}

// Run executes action. The returned error is non-nil only for invalid
// arguments; vendor failures are reported in the result.
func (c *Commands) Run(ctx context.Context, action Action, args map[string]interface{}) (*UserResult, error) {
	in, err := parseInput(args)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("user action", slog.String("action", string(action)))

	var res *UserResult
	switch action {
	case ActionGet:
		res = c.get(ctx, in)
	case ActionCreate:
		res = c.create(ctx, in, true)
	case ActionUpdate:
		res = c.update(ctx, in, true)
	case ActionEnable:
		res = c.enable(ctx, in)
	case ActionDisable:
		res = c.disable(ctx, in)
	default:
		return nil, fmt.Errorf("%w: %s", operation.ErrUnknownCommand, action)
	}

	if res.Email == "" {
		res.Email = in.email
	}
	return res, nil
}

func (c *Commands) get(ctx context.Context, in *userInput) *UserResult {
	user, err := c.client.GetUser(ctx, in.email)
	if err != nil {
		return c.fail(ctx, err, ActionGet)
	}
	if user == nil {
		return &UserResult{
			Action:       ActionGet,
			Success:      false,
			ErrorCode:    404,
			ErrorMessage: ReasonUserNotFound,
		}
	}
	return c.succeed(ctx, ActionGet, in.email, user)
}

// create adds the user, or updates it when it already exists.
func (c *Commands) create(ctx context.Context, in *userInput, fallback bool) *UserResult {
	if !c.settings.CreateEnabled {
		return skip(ActionCreate, ReasonCommandDisabled)
	}

	user, err := c.client.GetUser(ctx, in.email)
	if err != nil {
		return c.fail(ctx, err, ActionCreate)
	}
	if user != nil && fallback {
		return c.update(ctx, in, false)
	}

	payload, err := c.mapper.ToVendor(ctx, in.profile)
	if err != nil {
		return &UserResult{Action: ActionCreate, ErrorMessage: err.Error()}
	}

	created, err := c.client.CreateUser(ctx, payload)
	if err != nil {
		return c.fail(ctx, err, ActionCreate)
	}
	return c.succeed(ctx, ActionCreate, in.email, created)
}

// update changes the user, or creates it when missing and
// create_if_not_exists is set.
func (c *Commands) update(ctx context.Context, in *userInput, fallback bool) *UserResult {
	if !c.settings.UpdateEnabled {
		return skip(ActionUpdate, ReasonCommandDisabled)
	}

	user, err := c.client.GetUser(ctx, in.email)
	if err != nil {
		return c.fail(ctx, err, ActionUpdate)
	}
	if user == nil {
		if c.settings.CreateIfNotExists && fallback {
			return c.create(ctx, in, false)
		}
		return skip(ActionUpdate, ReasonUserNotFound)
	}

	payload, err := c.mapper.ToVendor(ctx, in.profile)
	if err != nil {
		return &UserResult{Action: ActionUpdate, ErrorMessage: err.Error()}
	}

	if in.allowEnable && !user.Active {
		if _, err := c.client.EnableUser(ctx, user.ID); err != nil {
			return c.fail(ctx, err, ActionUpdate)
		}
	}

	updated, err := c.client.UpdateUser(ctx, user.ID, payload)
	if err != nil {
		return c.fail(ctx, err, ActionUpdate)
	}
	return c.succeed(ctx, ActionUpdate, in.email, updated)
}

func (c *Commands) enable(ctx context.Context, in *userInput) *UserResult {
	if !c.settings.EnableEnabled {
		return skip(ActionEnable, ReasonCommandDisabled)
	}

	user, err := c.client.GetUser(ctx, in.email)
	if err != nil {
		return c.fail(ctx, err, ActionEnable)
	}
	if user == nil {
		return skip(ActionEnable, ReasonUserNotFound)
	}

	if !user.Active {
		if user, err = c.client.EnableUser(ctx, user.ID); err != nil {
			return c.fail(ctx, err, ActionEnable)
		}
	}

	res := c.succeed(ctx, ActionEnable, in.email, user)
	active := true
	res.Active = &active
	return res
}

func (c *Commands) disable(ctx context.Context, in *userInput) *UserResult {
	if !c.settings.DisableEnabled {
		return skip(ActionDisable, ReasonCommandDisabled)
	}

	user, err := c.client.GetUser(ctx, in.email)
	if err != nil {
		return c.fail(ctx, err, ActionDisable)
	}
	if user == nil {
		return skip(ActionDisable, ReasonUserNotFound)
	}

	if user.Active {
		if user, err = c.client.DisableUser(ctx, user.ID); err != nil {
			return c.fail(ctx, err, ActionDisable)
		}
	}

	res := c.succeed(ctx, ActionDisable, in.email, user)
	active := false
	res.Active = &active
	return res
}

// succeed builds the result for user and maps the vendor record back to a
// platform profile.
func (c *Commands) succeed(ctx context.Context, action Action, email string, user *UserAppData) *UserResult {
	res := fromAppData(action, email, user)
	profile, err := c.mapper.FromVendor(ctx, user.Data)
	if err != nil {
		c.logger.Warn("mapping vendor user failed", slog.String("action", string(action)), slog.String("error", err.Error()))
		return res
	}
	res.UserProfile = profile
	return res
}

func (c *Commands) fail(ctx context.Context, err error, action Action) *UserResult {
	res := HandleError(ctx, err, action, c.rule, c.fields)
	if res.Skipped {
		c.logger.Debug("vendor error skipped", slog.String("action", string(action)), slog.String("error", err.Error()))
	} else {
		c.logger.Error("user action failed", slog.String("action", string(action)), slog.String("error", err.Error()))
	}
	return res
}
