package service

import (
	"errors"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/storage"
)

// ReasonHeader carries the machine-readable rejection reason of an
// invalid_argument error.
const ReasonHeader = "Splitledger-Reason"

var errPermissionDenied = errors.New("caller is not a member of the group")

// toConnectError maps ledger errors onto Connect codes.
func toConnectError(err error) error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return err
	}

	var validationErr *calculator.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return validationError(validationErr)
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

// validationError builds an invalid_argument error carrying the reason both
// as error metadata and as a Struct detail.
func validationError(v *calculator.ValidationError) *connect.Error {
	connectErr := connect.NewError(connect.CodeInvalidArgument, v)
	connectErr.Meta().Set(ReasonHeader, string(v.Reason))

	detail, err := structpb.NewStruct(map[string]any{
		"reason": string(v.Reason),
		"detail": v.Detail,
	})
	if err == nil {
		if errDetail, err := connect.NewErrorDetail(detail); err == nil {
			connectErr.AddDetail(errDetail)
		}
	}
	return connectErr
}

func reject(reason calculator.Reason, detail string) *connect.Error {
	return validationError(&calculator.ValidationError{Reason: reason, Detail: detail})
}

// ReasonOf extracts the rejection reason from an error returned by the client.
// It returns an empty reason when err carries none.
func ReasonOf(err error) calculator.Reason {
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		return ""
	}
	if reason := connectErr.Meta().Get(ReasonHeader); reason != "" {
		return calculator.Reason(reason)
	}
	for _, d := range connectErr.Details() {
		msg, err := d.Value()
		if err != nil {
			continue
		}
		if s, ok := msg.(*structpb.Struct); ok {
			if reason := s.GetFields()["reason"].GetStringValue(); reason != "" {
				return calculator.Reason(reason)
			}
		}
	}
	return ""
}
