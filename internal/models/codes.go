package models

import (
	"errors"
	"fmt"
)

// ServiceCode is the numeric result code carried in every response envelope.
// Positive one is success; negative values enumerate failures.
type ServiceCode int

const (
	CodeSuccess ServiceCode = 1

	// input validation
	CodeInvalidHTTPMethod     ServiceCode = -100
	CodeInvalidRequestType    ServiceCode = -101
	CodeInvalidUserID         ServiceCode = -102
	CodeInvalidDeviceToken    ServiceCode = -103
	CodeInvalidPlatformType   ServiceCode = -104
	CodeInvalidEventBody      ServiceCode = -105
	CodeInvalidPath           ServiceCode = -106
	CodeInvalidRequesterName  ServiceCode = -107
	CodeInvalidReceiverCount  ServiceCode = -108
	CodeInvalidAdditionalData ServiceCode = -109

	// missing group data
	CodeMissingGroupInfo         ServiceCode = -200
	CodeMissingGroupParticipants ServiceCode = -201
	CodeMissingGroupCreatorInfo  ServiceCode = -202

	// push provider failures
	CodeFailedGettingEndpoints ServiceCode = -300
	CodeFailedSendingPush      ServiceCode = -301
	CodeFailedCreateEndpoint   ServiceCode = -302
	CodeFailedDisableEndpoint  ServiceCode = -303

	CodeProviderCreateEndpointFailed ServiceCode = -800

	// graph store failures
	CodeGraphGetEndpointFailed      ServiceCode = -900
	CodeGraphConnectionUpdateFailed ServiceCode = -901
	CodeGraphCreateRelationFailed   ServiceCode = -902
	CodeGraphCreateEndpointFailed   ServiceCode = -903
	CodeGraphEndpointNotExist       ServiceCode = -904
)

var codeMessages = map[ServiceCode]string{
	CodeSuccess:                      "Success",
	CodeInvalidHTTPMethod:            "Invalid http method",
	CodeInvalidRequestType:           "Invalid request type",
	CodeInvalidUserID:                "Invalid or missing userid values",
	CodeInvalidDeviceToken:           "Invalid device token",
	CodeInvalidPlatformType:          "Invalid platform type",
	CodeInvalidEventBody:             "Invalid body data",
	CodeInvalidPath:                  "Invalid path parameter",
	CodeInvalidRequesterName:         "Invalid or missing requester name information",
	CodeInvalidReceiverCount:         "Invalid notification receiver count",
	CodeInvalidAdditionalData:        "Additional data is missing, it's required for group creation process",
	CodeMissingGroupInfo:             "Missing group infomation",
	CodeMissingGroupParticipants:     "Missing group participants, push notifications is not required",
	CodeMissingGroupCreatorInfo:      "Missing group creator informations",
	CodeFailedGettingEndpoints:       "Getting endpoint data from push provider failed",
	CodeFailedSendingPush:            "Sending push notification failed",
	CodeFailedCreateEndpoint:         "Push provider endpoint creation failed",
	CodeFailedDisableEndpoint:        "Push provider reported endpoint disabled",
	CodeProviderCreateEndpointFailed: "SNS create endpoint process failed",
	CodeGraphGetEndpointFailed:       "Neo4j getting endpoint data failed",
	CodeGraphConnectionUpdateFailed:  "Neo4j connection update process failed",
	CodeGraphCreateRelationFailed:    "Neo4j relation create process failed",
	CodeGraphCreateEndpointFailed:    "Neo4j create endpoint process failed",
	CodeGraphEndpointNotExist:        "There is no disabled endpoint to be deleted",
}

// Message returns the human readable text for the code.
func (c ServiceCode) Message() string {
	if msg, ok := codeMessages[c]; ok {
		return msg
	}
	return "Undefined error occured"
}

// ServiceError couples a ServiceCode with an underlying cause so engines can
// surface both a wire-level code and a loggable error chain.
type ServiceError struct {
	Code  ServiceCode
	cause error
}

// Errf wraps cause with the given code. A nil cause is allowed; the code
// alone carries the failure.
func Errf(code ServiceCode, cause error) *ServiceError {
	return &ServiceError{Code: code, cause: cause}
}

func (e *ServiceError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s (code %d): %v", e.Code.Message(), e.Code, e.cause)
	}
	return fmt.Sprintf("%s (code %d)", e.Code.Message(), e.Code)
}

func (e *ServiceError) Unwrap() error { return e.cause }

// CodeOf extracts the service code from err. A nil error is success; an
// error without an embedded code falls through to the undefined-code zero
// value, which renders as "Undefined error occured".
func CodeOf(err error) ServiceCode {
	if err == nil {
		return CodeSuccess
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}
