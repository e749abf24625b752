package transport

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// AWSTransportConfig configures the AWS SigV4 transport.
type AWSTransportConfig struct {
	// BaseURL is the service endpoint (required)
	BaseURL string

	// Service is the signing service name (e.g., "execute-api", "identitystore", required)
	Service string

	// Region is the AWS region (e.g., "us-east-1", required)
	Region string

	// AccessKeyID and SecretAccessKey are static credentials. When both are
	// empty the default AWS credential chain is used.
	AccessKeyID     string
	SecretAccessKey string

	// Headers are default headers applied to all requests
	Headers map[string]string

	ClientOptions
}

// TransportType returns the transport type identifier.
func (c *AWSTransportConfig) TransportType() string {
	return "aws_sigv4"
}

// Validate checks the configuration is valid.
func (c *AWSTransportConfig) Validate() error {
	if err := validateBaseURL(c.BaseURL); err != nil {
		return err
	}
	if c.Service == "" {
		return fmt.Errorf("service is required for aws_sigv4 transport")
	}
	if c.Region == "" {
		return fmt.Errorf("region is required for aws_sigv4 transport")
	}
	if (c.AccessKeyID == "") != (c.SecretAccessKey == "") {
		return fmt.Errorf("access key id and secret access key must be set together")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}
	return nil
}

// AWSTransport implements Transport for AWS-fronted vendor APIs with SigV4 signing.
type AWSTransport struct {
	config      *AWSTransportConfig
	client      aws.HTTPClient
	awsConfig   aws.Config
	signer      *v4.Signer
	credentials aws.Credentials
	credExpiry  time.Time
	credMutex   sync.RWMutex
	rateLimiter RateLimiter
}

// NewAWSTransport creates a new AWS SigV4 transport. Credentials are
// resolved lazily on the first request.
func NewAWSTransport(ctx context.Context, cfg *AWSTransportConfig) (*AWSTransport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
		config.WithHTTPClient(newAWSHTTPClient(cfg.ClientOptions)),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	loadCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	awsCfg, err := config.LoadDefaultConfig(loadCtx, opts...)
	if err != nil {
		return nil, &TransportError{
			Type:    ErrorTypeAuth,
			Message: fmt.Sprintf("failed to load AWS configuration: %v", sanitizeAWSError(err.Error())),
			Cause:   err,
		}
	}

	// The loaded config carries the client with any AWS_CA_BUNDLE roots
	// applied, so vendor requests and STS calls trust the same CAs.
	return &AWSTransport{
		config:    cfg,
		client:    awsCfg.HTTPClient,
		awsConfig: awsCfg,
		signer:    v4.NewSigner(),
	}, nil
}

// newAWSHTTPClient builds the SDK's buildable client with the shared
// connection settings. The SDK can only add a custom CA bundle to a client
// that exposes WithTransportOptions.
func newAWSHTTPClient(opts ClientOptions) *awshttp.BuildableClient {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return awshttp.NewBuildableClient().
		WithTimeout(timeout).
		WithTransportOptions(func(tr *http.Transport) {
			if opts.Proxy {
				tr.Proxy = http.ProxyFromEnvironment
			} else {
				tr.Proxy = nil
			}
			if tr.TLSClientConfig == nil {
				tr.TLSClientConfig = &tls.Config{}
			}
			tr.TLSClientConfig.InsecureSkipVerify = opts.TLSInsecure
		})
}

// VerifyIdentity calls STS GetCallerIdentity and returns the caller ARN.
// Used by connectivity tests to confirm the credentials are accepted.
func (t *AWSTransport) VerifyIdentity(ctx context.Context) (string, error) {
	if err := t.refreshCredentials(ctx); err != nil {
		return "", err
	}

	stsClient := sts.NewFromConfig(t.awsConfig)

	validationCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out, err := stsClient.GetCallerIdentity(validationCtx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", &TransportError{
			Type:    ErrorTypeAuth,
			Message: fmt.Sprintf("AWS credential validation failed: %v", sanitizeAWSError(err.Error())),
			Cause:   err,
		}
	}

	return aws.ToString(out.Arn), nil
}

// refreshCredentials retrieves and caches AWS credentials.
func (t *AWSTransport) refreshCredentials(ctx context.Context) error {
	t.credMutex.Lock()
	defer t.credMutex.Unlock()

	// Check if cached credentials are still valid
	if !t.credExpiry.IsZero() && time.Now().Before(t.credExpiry) {
		return nil
	}

	// Retrieve credentials from provider chain
	creds, err := t.awsConfig.Credentials.Retrieve(ctx)
	if err != nil {
		return &TransportError{
			Type:    ErrorTypeAuth,
			Message: fmt.Sprintf("unable to resolve AWS credentials: %v", sanitizeAWSError(err.Error())),
			Cause:   err,
		}
	}

	// Cache credentials with max 1 hour TTL
	t.credentials = creds
	expiry := creds.Expires
	if expiry.IsZero() || expiry.Sub(time.Now()) > time.Hour {
		expiry = time.Now().Add(time.Hour)
	}
	t.credExpiry = expiry

	return nil
}

// Execute sends a request with AWS SigV4 signing.
func (t *AWSTransport) Execute(ctx context.Context, req *Request) (*Response, error) {
	if err := validateRequest(req); err != nil {
		return nil, invalidRequest(err)
	}

	if err := waitRateLimit(ctx, t.rateLimiter); err != nil {
		return nil, err
	}

	if err := t.refreshCredentials(ctx); err != nil {
		return nil, err
	}

	httpReq, err := newHTTPRequest(ctx, req, resolveURL(t.config.BaseURL, req.URL), t.config.Headers)
	if err != nil {
		return nil, &TransportError{
			Type:    ErrorTypeInvalidReq,
			Message: fmt.Sprintf("failed to create request: %v", err),
			Cause:   err,
		}
	}

	payloadHash := calculatePayloadHash(req.Body)
	httpReq.Header.Set("X-Amz-Content-Sha256", payloadHash)

	t.credMutex.RLock()
	creds := t.credentials
	t.credMutex.RUnlock()

	if err := t.signer.SignHTTP(ctx, creds, httpReq, payloadHash, t.config.Service, t.config.Region, time.Now()); err != nil {
		return nil, &TransportError{
			Type:    ErrorTypeInvalidReq,
			Message: fmt.Sprintf("failed to sign request: %v", err),
			Cause:   err,
		}
	}

	resp, err := do(t.client, httpReq, "x-amzn-RequestId", "x-amz-request-id")
	if err != nil {
		if te, ok := AsTransportError(err); ok && te.StatusCode != 0 {
			return nil, parseAWSError(te.StatusCode, te.Body, te.RequestID)
		}
		return nil, err
	}
	if id, ok := resp.Metadata[MetadataRequestID]; ok {
		resp.Metadata[MetadataAWSRequestID] = id
	}
	return resp, nil
}

// Name returns the transport identifier.
func (t *AWSTransport) Name() string {
	return "aws_sigv4"
}

// SetRateLimiter configures rate limiting for this transport.
func (t *AWSTransport) SetRateLimiter(limiter RateLimiter) {
	t.rateLimiter = limiter
}

// calculatePayloadHash computes the SHA256 hash of the request body.
func calculatePayloadHash(body []byte) string {
	if body == nil {
		body = []byte{}
	}
	hash := sha256.Sum256(body)
	return hex.EncodeToString(hash[:])
}

// parseAWSError parses AWS error responses (XML or JSON).
func parseAWSError(statusCode int, body []byte, requestID string) error {
	// Try to parse as XML first (common for S3, etc.)
	var xmlErr struct {
		Code    string `xml:"Code"`
		Message string `xml:"Message"`
	}
	if err := xml.Unmarshal(body, &xmlErr); err == nil && xmlErr.Code != "" {
		return classifyAWSError(statusCode, xmlErr.Code, xmlErr.Message, requestID, body)
	}

	// Try to parse as JSON (common for newer AWS APIs)
	var jsonErr struct {
		Code    string `json:"__type"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &jsonErr); err == nil && jsonErr.Code != "" {
		return classifyAWSError(statusCode, jsonErr.Code, jsonErr.Message, requestID, body)
	}

	// Fallback to generic error
	return &TransportError{
		Type:       ErrorTypeForStatus(statusCode),
		StatusCode: statusCode,
		Message:    fmt.Sprintf("AWS request failed with status %d", statusCode),
		Body:       body,
		RequestID:  requestID,
	}
}

// classifyAWSError categorizes AWS errors by code and status.
func classifyAWSError(statusCode int, code, message, requestID string, body []byte) error {
	message = sanitizeAWSError(message)

	var errorType ErrorType
	switch code {
	case "SignatureDoesNotMatch", "InvalidSignatureException", "InvalidAccessKeyId", "UnrecognizedClientException":
		errorType = ErrorTypeAuth
	case "RequestLimitExceeded", "Throttling", "ThrottlingException", "TooManyRequestsException":
		errorType = ErrorTypeRateLimit
	case "RequestTimeout", "RequestTimeoutException":
		errorType = ErrorTypeTimeout
	case "ResourceNotFoundException", "NoSuchEntity":
		errorType = ErrorTypeNotFound
	default:
		errorType = ErrorTypeForStatus(statusCode)
	}

	return &TransportError{
		Type:       errorType,
		StatusCode: statusCode,
		Message:    fmt.Sprintf("AWS error %s: %s", code, message),
		Body:       body,
		RequestID:  requestID,
		Metadata: map[string]interface{}{
			"aws_error_code": code,
		},
	}
}

// sanitizeAWSError removes credentials and sensitive data from error messages.
func sanitizeAWSError(msg string) string {
	// Find and redact AWS access keys (AKIA followed by 16 alphanumeric characters)
	// Replace with AKIA**** to indicate redaction
	searchPos := 0
	for {
		akiaPos := strings.Index(msg[searchPos:], "AKIA")
		if akiaPos == -1 {
			break
		}
		// Adjust position to absolute index
		akiaPos += searchPos

		// Find the end of the access key (next 16 chars after AKIA)
		endPos := akiaPos + 20 // 4 (AKIA) + 16
		if endPos > len(msg) {
			endPos = len(msg)
		}

		// Redact the access key
		msg = msg[:akiaPos] + "AKIA****" + msg[endPos:]

		// Move search position past the replacement to avoid infinite loop
		searchPos = akiaPos + len("AKIA****")
	}
	// ARNs and bucket names are acceptable for debugging
	return msg
}
