// Package domainrank scores domains by their popularity rank on a web
// traffic ranking service.
package domainrank

import (
	"context"
	"fmt"

	"github.com/tombee/soarbridge/internal/jq"
	"github.com/tombee/soarbridge/internal/operation"
	"github.com/tombee/soarbridge/internal/operation/api"
	soarerrors "github.com/tombee/soarbridge/pkg/errors"
)

const (
	// OutputsPrefix is the context path domain results are stored under.
	OutputsPrefix = "Alexa.Domain"

	// DefaultVendor names the scoring source on indicators.
	DefaultVendor = "Alexa Rank Indicator v2"

	// testDomain is looked up by test-module.
	testDomain = "google.com"
)

// Field names for response extraction.
const (
	FieldDataURL = "data_url"
	FieldRank    = "rank"
)

// DefaultFields are the jq expressions used to read rank responses.
var DefaultFields = map[string]string{
	FieldDataURL: ".Awis.Results.Result.Alexa.TrafficData.DataUrl",
	FieldRank:    ".Awis.Results.Result.Alexa.TrafficData.Rank",
}

// DomainRankIntegration looks up domain ranks and turns them into
// reputation scores.
type DomainRankIntegration struct {
	*api.BaseProvider
	fields      *jq.Extractor
	benign      float64
	threshold   float64
	reliability string
	vendor      string
}

// NewDomainRankIntegration creates a domain rank provider. The benign and
// threshold params are required and must not be negative.
func NewDomainRankIntegration(config *api.ProviderConfig) (operation.Provider, error) {
	if config.Instance == nil {
		return nil, fmt.Errorf("domainrank integration requires an instance configuration")
	}
	params := config.Instance.Params
	base := api.NewBaseProvider("domainrank", config.Instance.BaseURL, config)
	v := base.Validator()

	benign, ok, err := params.Float("benign")
	if err != nil {
		return nil, paramError("benign", err)
	}
	if err := v.ValidateNonNegative("benign", benign, ok); err != nil {
		return nil, paramError("benign", err)
	}

	threshold, ok, err := params.Float("threshold")
	if err != nil {
		return nil, paramError("threshold", err)
	}
	if err := v.ValidateNonNegative("threshold", threshold, ok); err != nil {
		return nil, paramError("threshold", err)
	}

	reliability := params.String("reliability")
	if reliability == "" {
		reliability = operation.ReliabilityA
	}
	if err := v.ValidateReliability(reliability); err != nil {
		return nil, &soarerrors.ConfigError{
			Key:    "params.reliability",
			Reason: "Please provide a valid value for the Source Reliability parameter.",
			Cause:  err,
		}
	}

	vendor := params.String("vendor")
	if vendor == "" {
		vendor = DefaultVendor
	}

	fields, err := jq.NewExtractor(base.JQ(), DefaultFields, config.Instance.Fields)
	if err != nil {
		return nil, &soarerrors.ConfigError{Key: "fields", Reason: err.Error(), Cause: err}
	}

	return &DomainRankIntegration{
		BaseProvider: base,
		fields:       fields,
		benign:       benign,
		threshold:    threshold,
		reliability:  reliability,
		vendor:       vendor,
	}, nil
}

func paramError(name string, err error) error {
	return &soarerrors.ConfigError{
		Key:    "params." + name,
		Reason: err.Error(),
		Cause:  err,
	}
}

// Execute runs a named command with the given arguments.
func (c *DomainRankIntegration) Execute(ctx context.Context, command string, args map[string]interface{}) (*operation.Result, error) {
	switch command {
	case "test-module":
		return c.testModule(ctx)
	case "domain":
		return c.domain(ctx, args)
	default:
		return nil, fmt.Errorf("%w: %s", operation.ErrUnknownCommand, command)
	}
}

// Operations returns the list of available commands.
func (c *DomainRankIntegration) Operations() []api.OperationInfo {
	return []api.OperationInfo{
		{Name: "test-module", Description: "Check the API key by ranking google.com", Category: "connectivity", Tags: []string{"read", "connectivity"}},
		{Name: "domain", Description: "Score domains by popularity rank", Category: "reputation", Tags: []string{"read"}},
	}
}

// OperationSchema returns the schema for a command.
func (c *DomainRankIntegration) OperationSchema(command string) *api.OperationSchema {
	switch command {
	case "test-module":
		return &api.OperationSchema{Description: "Check the API key by ranking google.com"}
	case "domain":
		return &api.OperationSchema{
			Description: "Score domains by popularity rank",
			Parameters: []api.ParameterInfo{
				{Name: "domain", Type: "array", Description: "Domains to rank, comma separated", Required: true},
			},
			ResponseFields: []api.ResponseFieldInfo{
				{Name: OutputsPrefix + ".Name", Type: "string", Description: "The domain name"},
				{Name: OutputsPrefix + ".Indicator", Type: "string", Description: "The domain that was scored"},
				{Name: OutputsPrefix + ".Rank", Type: "string", Description: "Popularity rank, or Unknown"},
			},
		}
	}
	return nil
}
