package builtins

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"math"
	"strconv"
	"strings"

	"formula/internal/function"
	"formula/internal/object"
	"formula/internal/types"

	"github.com/goccy/go-json"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// numberCodec writes and reads one fixed-size number. Names carry an optional
// "le" suffix for little endian; big endian is the default.
type numberCodec struct {
	size  int
	put   func(b []byte, order binary.ByteOrder, v float64)
	fetch func(b []byte, order binary.ByteOrder) float64
}

var numberCodecs = map[string]numberCodec{
	"int8": {1,
		func(b []byte, _ binary.ByteOrder, v float64) { b[0] = byte(int8(v)) },
		func(b []byte, _ binary.ByteOrder) float64 { return float64(int8(b[0])) }},
	"uint8": {1,
		func(b []byte, _ binary.ByteOrder, v float64) { b[0] = uint8(v) },
		func(b []byte, _ binary.ByteOrder) float64 { return float64(b[0]) }},
	"int16": {2,
		func(b []byte, o binary.ByteOrder, v float64) { o.PutUint16(b, uint16(int16(v))) },
		func(b []byte, o binary.ByteOrder) float64 { return float64(int16(o.Uint16(b))) }},
	"uint16": {2,
		func(b []byte, o binary.ByteOrder, v float64) { o.PutUint16(b, uint16(v)) },
		func(b []byte, o binary.ByteOrder) float64 { return float64(o.Uint16(b)) }},
	"int32": {4,
		func(b []byte, o binary.ByteOrder, v float64) { o.PutUint32(b, uint32(int32(v))) },
		func(b []byte, o binary.ByteOrder) float64 { return float64(int32(o.Uint32(b))) }},
	"uint32": {4,
		func(b []byte, o binary.ByteOrder, v float64) { o.PutUint32(b, uint32(v)) },
		func(b []byte, o binary.ByteOrder) float64 { return float64(o.Uint32(b)) }},
	"int64": {8,
		func(b []byte, o binary.ByteOrder, v float64) { o.PutUint64(b, uint64(int64(v))) },
		func(b []byte, o binary.ByteOrder) float64 { return float64(int64(o.Uint64(b))) }},
	"uint64": {8,
		func(b []byte, o binary.ByteOrder, v float64) { o.PutUint64(b, uint64(v)) },
		func(b []byte, o binary.ByteOrder) float64 { return float64(o.Uint64(b)) }},
	"float32": {4,
		func(b []byte, o binary.ByteOrder, v float64) { o.PutUint32(b, math.Float32bits(float32(v))) },
		func(b []byte, o binary.ByteOrder) float64 { return float64(math.Float32frombits(o.Uint32(b))) }},
	"float64": {8,
		func(b []byte, o binary.ByteOrder, v float64) { o.PutUint64(b, math.Float64bits(v)) },
		func(b []byte, o binary.ByteOrder) float64 { return math.Float64frombits(o.Uint64(b)) }},
}

func lookupNumberCodec(name string) (numberCodec, binary.ByteOrder, bool) {
	var order binary.ByteOrder = binary.BigEndian
	switch {
	case strings.HasSuffix(name, "le"):
		name, order = strings.TrimSuffix(name, "le"), binary.LittleEndian
	case strings.HasSuffix(name, "be"):
		name = strings.TrimSuffix(name, "be")
	}
	codec, ok := numberCodecs[name]
	return codec, order, ok
}

// FuncToNumberBuffer encodes a number, as float64 unless another encoding is
// named.
var FuncToNumberBuffer = function.New(
	func(args ...object.Value) object.Value {
		codec, order, ok := lookupNumberCodec(optionalString(args, 1, "float64"))
		if !ok {
			return nil
		}
		buf := make([]byte, codec.size)
		codec.put(buf, order, toNumber(args[0]))
		return object.Buffer{Value: buf}
	},
	types.TypeBuffer, []types.Type{types.TypeNumber, types.OptionalString},
	function.Arity(1, 2), independent,
)

// FuncFromNumberBuffer decodes a number at an optional byte offset.
var FuncFromNumberBuffer = function.New(
	func(args ...object.Value) object.Value {
		buf, _ := args[0].(object.Buffer)
		codec, order, ok := lookupNumberCodec(optionalString(args, 1, "float64"))
		if !ok {
			return nil
		}
		offset, _ := optionalNumber(args, 2)
		if offset < 0 || offset != math.Trunc(offset) || offset > float64(len(buf.Value)) ||
			int(offset)+codec.size > len(buf.Value) {
			return nil
		}
		return object.Number{Value: codec.fetch(buf.Value[int(offset):], order)}
	},
	types.TypeNumber, []types.Type{types.TypeBuffer, types.OptionalString, types.OptionalNumber},
	function.Arity(1, 3), independent,
)

// textEncodings maps the names accepted by the string buffer functions.
var textEncodings = map[string]encoding.Encoding{
	"utf8":    encoding.Nop,
	"utf-8":   encoding.Nop,
	"utf16le": unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),
	"utf16be": unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM),
	"ucs2":    unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),
	"latin1":  charmap.ISO8859_1,
}

func textEncoding(args []object.Value, i int) (encoding.Encoding, bool) {
	enc, ok := textEncodings[strings.ToLower(optionalString(args, i, "utf8"))]
	return enc, ok
}

var FuncToStringBuffer = function.New(
	func(args ...object.Value) object.Value {
		s, _ := toString(args[0])
		enc, ok := textEncoding(args, 1)
		if !ok {
			return nil
		}
		buf, err := enc.NewEncoder().Bytes([]byte(s))
		if err != nil {
			return nil
		}
		return object.Buffer{Value: buf}
	},
	types.TypeBuffer, []types.Type{types.TypeString, types.OptionalString},
	function.Arity(1, 2), independent,
)

var FuncFromStringBuffer = function.New(
	func(args ...object.Value) object.Value {
		buf, _ := args[0].(object.Buffer)
		enc, ok := textEncoding(args, 1)
		if !ok {
			return nil
		}
		out, err := enc.NewDecoder().Bytes(buf.Value)
		if err != nil {
			return nil
		}
		return object.String{Value: string(out)}
	},
	types.TypeString, []types.Type{types.TypeBuffer, types.OptionalString},
	function.Arity(1, 2), independent,
)

func radix(args []object.Value, i int) (int, bool) {
	r, ok := optionalNumber(args, i)
	if !ok {
		return 10, true
	}
	return int(r), r == math.Trunc(r) && r >= 2 && r <= 36
}

// FuncToNumberString formats a number, in decimal unless a radix between 2
// and 36 is given. Other radixes only format the integer part.
var FuncToNumberString = function.New(
	func(args ...object.Value) object.Value {
		n := toNumber(args[0])
		base, ok := radix(args, 1)
		if !ok {
			return nil
		}
		if base == 10 || math.IsNaN(n) || math.IsInf(n, 0) {
			return object.String{Value: object.FormatNumber(n)}
		}
		return object.String{Value: strconv.FormatInt(int64(n), base)}
	},
	types.TypeString, []types.Type{types.TypeNumber, types.OptionalNumber},
	function.Arity(1, 2), independent,
)

// FuncFromNumberString parses a number. Unparseable input yields NaN.
var FuncFromNumberString = function.New(
	func(args ...object.Value) object.Value {
		s, _ := toString(args[0])
		s = strings.TrimSpace(s)
		base, ok := radix(args, 1)
		if !ok {
			return nil
		}
		if base == 10 {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil
			}
			return object.Number{Value: f}
		}
		i, err := strconv.ParseInt(s, base, 64)
		if err != nil {
			return nil
		}
		return object.Number{Value: float64(i)}
	},
	types.TypeNumber, []types.Type{types.TypeString, types.OptionalNumber},
	function.Arity(1, 2), independent,
)

// FuncToBufferString renders a buffer as hex, or base64 when asked.
var FuncToBufferString = function.New(
	func(args ...object.Value) object.Value {
		buf, _ := args[0].(object.Buffer)
		switch optionalString(args, 1, "hex") {
		case "hex":
			return object.String{Value: hex.EncodeToString(buf.Value)}
		case "base64":
			return object.String{Value: base64.StdEncoding.EncodeToString(buf.Value)}
		}
		return nil
	},
	types.TypeString, []types.Type{types.TypeBuffer, types.OptionalString},
	function.Arity(1, 2), independent,
)

// FuncFromBufferString reads hex or base64 text into a buffer. Invalid text
// yields an empty buffer.
var FuncFromBufferString = function.New(
	func(args ...object.Value) object.Value {
		s, _ := toString(args[0])
		var (
			buf []byte
			err error
		)
		switch optionalString(args, 1, "hex") {
		case "hex":
			buf, err = hex.DecodeString(s)
		case "base64":
			buf, err = base64.StdEncoding.DecodeString(s)
		default:
			return nil
		}
		if err != nil {
			return nil
		}
		return object.Buffer{Value: buf}
	},
	types.TypeBuffer, []types.Type{types.TypeString, types.OptionalString},
	function.Arity(1, 2), independent,
)

// FuncToJsonString serializes a JSON value. Void stays void.
var FuncToJsonString = function.New(
	func(args ...object.Value) object.Value {
		if _, isVoid := args[0].(object.Void); isVoid {
			return object.NIL
		}
		out, err := json.Marshal(object.ToNative(args[0]))
		if err != nil {
			return object.NIL
		}
		return object.String{Value: string(out)}
	},
	types.OptionalString, []types.Type{types.Json},
	independent,
)

// FuncFromJsonString parses JSON text. Void, empty or malformed input yields
// void.
var FuncFromJsonString = function.New(
	func(args ...object.Value) object.Value {
		s, ok := toString(args[0])
		if !ok || strings.TrimSpace(s) == "" {
			return object.NIL
		}
		var v any
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return object.NIL
		}
		return object.FromNative(v)
	},
	types.Json, []types.Type{types.OptionalString},
	independent,
)

var digests = map[string]func([]byte) []byte{
	"sha3-256":    func(b []byte) []byte { s := sha3.Sum256(b); return s[:] },
	"sha3-512":    func(b []byte) []byte { s := sha3.Sum512(b); return s[:] },
	"blake2b-256": func(b []byte) []byte { s := blake2b.Sum256(b); return s[:] },
	"blake2b-512": func(b []byte) []byte { s := blake2b.Sum512(b); return s[:] },
}

// FuncDigest hashes a buffer, or the UTF-8 bytes of a string, with SHA3-256
// unless another algorithm is named.
var FuncDigest = function.New(
	func(args ...object.Value) object.Value {
		var data []byte
		switch v := args[0].(type) {
		case object.Buffer:
			data = v.Value
		case object.String:
			data = []byte(v.Value)
		}
		sum, ok := digests[strings.ToLower(optionalString(args, 1, "sha3-256"))]
		if !ok {
			return nil
		}
		return object.Buffer{Value: sum(data)}
	},
	types.TypeBuffer, []types.Type{types.New(types.Buffer, types.String), types.OptionalString},
	function.Arity(1, 2), independent,
)
