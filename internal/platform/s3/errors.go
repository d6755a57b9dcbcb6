package s3

import (
	"context"
	"errors"
	"net"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// IsBucketAlreadyOwned checks if the error indicates the bucket exists
// and is owned by us.
func IsBucketAlreadyOwned(err error) bool {
	if err == nil {
		return false
	}

	// Check for typed S3 errors first
	var baoby *types.BucketAlreadyOwnedByYou
	if errors.As(err, &baoby) {
		return true
	}

	var bae *types.BucketAlreadyExists
	if errors.As(err, &bae) {
		return true
	}

	// Fall back to API error code checking for S3-compatible services
	// that may not return the exact SDK error types
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "BucketAlreadyOwnedByYou" || code == "BucketAlreadyExists"
	}

	return false
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}

	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return true
	}

	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "NotFound" || code == "NoSuchBucket" || code == "404"
	}

	return false
}

// IsNoSuchBucketPolicy checks if the error means no policy is attached.
func IsNoSuchBucketPolicy(err error) bool {
	if err == nil {
		return false
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "NoSuchBucketPolicy"
	}

	return false
}

// IsAccessDenied checks if the error is a permission failure. Retrying
// with the same credentials will not change the outcome.
func IsAccessDenied(err error) bool {
	if err == nil {
		return false
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "AccessDenied" || code == "InvalidAccessKeyId" || code == "SignatureDoesNotMatch"
	}

	return false
}

// IsMalformedPolicy checks if the server rejected a policy document as
// invalid.
func IsMalformedPolicy(err error) bool {
	if err == nil {
		return false
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		return code == "MalformedPolicy" || code == "InvalidPolicyDocument"
	}

	return false
}

// IsRetryable classifies transient failures: network blips, timeouts,
// throttling, and server-side 5xx conditions. Permanent rejections
// (access denied, malformed input) are never retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if IsAccessDenied(err) || IsMalformedPolicy(err) {
		return false
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "InternalError", "ServiceUnavailable", "SlowDown", "RequestTimeout", "Throttling", "ThrottlingException", "503":
			return true
		}
		switch apiErr.ErrorFault() {
		case smithy.FaultServer:
			return true
		case smithy.FaultClient:
			return false
		}
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	// Unclassified transport-level failures are assumed transient.
	return true
}
