package variant

import (
	"fmt"
	"reflect"

	"github.com/cockroachdb/apd/v3"
	"github.com/fxamacker/cbor/v2"

	"github.com/wippyai/closure-runtime/errors"
)

// cborEncMode uses canonical mode for deterministic encoding.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("variant: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// wireVariant is the CBOR form: a two element array [tag, payload].
type wireVariant struct {
	_       struct{} `cbor:",toarray"`
	Tag     Tag
	Payload cbor.RawMessage
}

// MarshalCBOR encodes v as [tag, payload]. Decimals travel as text.
func (v Variant) MarshalCBOR() ([]byte, error) {
	var payload any
	switch v.tag {
	case TagEmpty:
	case TagDecimal:
		payload = v.ref.(*apd.Decimal).String()
	case TagChar:
		payload = int32(v.bits)
	default:
		payload = v.Interface()
	}

	raw, err := cborEncMode.Marshal(payload)
	if err != nil {
		e := errors.Unsupported(errors.PhaseCodec, typeName(payload), "encode "+v.tag.String()+" payload")
		e.Cause = err
		return nil, e
	}
	return cborEncMode.Marshal(wireVariant{Tag: v.tag, Payload: raw})
}

// UnmarshalCBOR decodes the [tag, payload] form. Scalar and decimal tags
// round-trip exactly; reference payloads decode into their generic CBOR Go
// form (string, uint64, []any, map[any]any and so on).
func (v *Variant) UnmarshalCBOR(data []byte) error {
	var w wireVariant
	if err := cbor.Unmarshal(data, &w); err != nil {
		return errors.Wrap(errors.PhaseCodec, errors.KindInvalidData, err, "decode variant")
	}
	if !w.Tag.Valid() {
		return errors.InvalidData(errors.PhaseCodec, []string{"tag"}, fmt.Sprintf("unknown tag %d", w.Tag))
	}

	switch w.Tag {
	case TagEmpty:
		*v = Variant{}
		return nil
	case TagDecimal:
		var s string
		if err := cbor.Unmarshal(w.Payload, &s); err != nil {
			return errors.Wrap(errors.PhaseCodec, errors.KindInvalidData, err, "decode decimal payload")
		}
		d, _, err := apd.NewFromString(s)
		if err != nil {
			return errors.Wrap(errors.PhaseCodec, errors.KindInvalidData, err, "parse decimal payload")
		}
		v.ref, v.bits, v.tag = d, 0, TagDecimal
		return nil
	case TagReference:
		var x any
		if err := cbor.Unmarshal(w.Payload, &x); err != nil {
			return errors.Wrap(errors.PhaseCodec, errors.KindInvalidData, err, "decode reference payload")
		}
		return v.SetValue(x)
	}

	dst := reflect.New(TypeOf(w.Tag))
	if err := cbor.Unmarshal(w.Payload, dst.Interface()); err != nil {
		return errors.New(errors.PhaseCodec, errors.KindInvalidData).
			Want(w.Tag.String()).
			Cause(err).
			Detail("decode scalar payload").
			Build()
	}
	return v.SetValue(dst.Elem().Interface())
}
