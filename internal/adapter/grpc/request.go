package grpc

import (
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/portfolio-tracker/internal/domain"
	"github.com/simaogato/portfolio-tracker/internal/usecase/basket"
	"github.com/simaogato/portfolio-tracker/internal/usecase/ledger"
	"google.golang.org/protobuf/types/known/structpb"
)

// request reads loosely typed fields out of a Struct.
// Numbers may be sent as strings or as JSON numbers; strings keep full decimal precision.
type request struct {
	fields map[string]*structpb.Value
}

func newRequest(s *structpb.Struct) request {
	return request{fields: s.GetFields()}
}

func (r request) str(name string) string {
	v, ok := r.fields[name]
	if !ok {
		return ""
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return kind.StringValue
	case *structpb.Value_NumberValue:
		return strconv.FormatFloat(kind.NumberValue, 'f', -1, 64)
	case *structpb.Value_BoolValue:
		return strconv.FormatBool(kind.BoolValue)
	default:
		return ""
	}
}

func (r request) boolean(name string) bool {
	v, ok := r.fields[name]
	if !ok {
		return false
	}
	if b, ok := v.GetKind().(*structpb.Value_BoolValue); ok {
		return b.BoolValue
	}
	parsed, _ := strconv.ParseBool(r.str(name))
	return parsed
}

func (r request) id(name string) (uuid.UUID, error) {
	return domain.ParseID(r.str(name), name)
}

func (r request) optionalDecimal(name, label string) (decimal.NullDecimal, error) {
	return domain.ParseOptionalDecimal(r.str(name), label)
}

func (r request) transactionInput() ledger.RawTransactionInput {
	return ledger.RawTransactionInput{
		Type:             r.str("type"),
		Timestamp:        r.str("timestamp"),
		Quantity:         r.str("quantity"),
		Price:            r.str("price"),
		Fees:             r.str("fees"),
		ManualValue:      r.str("manual_value"),
		InvestedOverride: r.str("invested_override"),
		Note:             r.str("note"),
	}
}

func (r request) members() ([]basket.MemberInput, error) {
	list := r.fields["members"].GetListValue().GetValues()
	members := make([]basket.MemberInput, 0, len(list))
	for _, item := range list {
		member := newRequest(item.GetStructValue())
		assetID, err := member.id("asset_id")
		if err != nil {
			return nil, err
		}
		weight, err := member.optionalDecimal("weight", "Weight")
		if err != nil {
			return nil, err
		}
		members = append(members, basket.MemberInput{AssetID: assetID, Weight: weight})
	}
	return members, nil
}
