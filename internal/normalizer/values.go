package normalizer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
	"github.com/supereum/explorer-indexer/internal/common"
)

func decode(raw json.RawMessage) (interface{}, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, fmt.Errorf("empty payload: %w", common.ErrInvalidPayload)
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("malformed json: %v: %w", err, common.ErrInvalidPayload)
	}
	return unwrapResult(v), nil
}

// unwrapResult strips a JSON-RPC style {"result": ...} envelope.
func unwrapResult(v interface{}) interface{} {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return v
	}
	if inner, ok := obj["result"]; ok && inner != nil {
		return inner
	}
	return v
}

func decodeObject(raw json.RawMessage) (map[string]interface{}, error) {
	v, err := decode(raw)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("expected object, got %T: %w", v, common.ErrInvalidPayload)
	}
	return obj, nil
}

func interfaceToString(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return fmt.Sprintf("%v", value)
}

func isHex(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}

// ParseBig reads a 0x-prefixed base-16 string, a base-10 string or a JSON number.
func ParseBig(value interface{}) (*big.Int, error) {
	s := strings.TrimSpace(interfaceToString(value))
	if s == "" {
		return nil, fmt.Errorf("empty number")
	}
	if isHex(s) {
		if v, err := hexutil.DecodeBig(s); err == nil {
			return v, nil
		}
		// leading zeros are rejected by hexutil but common on this node
		v, ok := new(big.Int).SetString(s[2:], 16)
		if !ok {
			return nil, fmt.Errorf("invalid hex number %q", s)
		}
		return v, nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if ok {
		return v, nil
	}
	// integral floats such as "1e3" or "12.0"
	d, err := decimal.NewFromString(s)
	if err != nil || !d.Equal(d.Truncate(0)) {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	return d.BigInt(), nil
}

// ParseUint is ParseBig restricted to uint64.
func ParseUint(value interface{}) (uint64, error) {
	v, err := ParseBig(value)
	if err != nil {
		return 0, err
	}
	if v.Sign() < 0 || !v.IsUint64() {
		return 0, fmt.Errorf("number %s out of range", v.String())
	}
	return v.Uint64(), nil
}

// ParseInt64 is ParseUint restricted to the non-negative int64 range, the
// range heights and timestamps are stored in.
func ParseInt64(value interface{}) (int64, error) {
	n, err := ParseUint(value)
	if err != nil {
		return 0, err
	}
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("number %d out of range", n)
	}
	return int64(n), nil
}

// ParseDecimal accepts fractional base-10 values as well as hex integers.
func ParseDecimal(value interface{}) (decimal.Decimal, error) {
	s := strings.TrimSpace(interfaceToString(value))
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty number")
	}
	if isHex(s) {
		v, err := ParseBig(s)
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromBigInt(v, 0), nil
	}
	return decimal.NewFromString(s)
}

func parseFloat(value interface{}) (float64, error) {
	d, err := ParseDecimal(value)
	if err != nil {
		return 0, err
	}
	f, _ := d.Float64()
	return f, nil
}

func parseBool(value interface{}) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case json.Number:
		return v.String() != "0", nil
	case string:
		switch strings.ToLower(v) {
		case "true", "1", "yes", "active", "online":
			return true, nil
		case "false", "0", "no", "inactive", "offline", "jailed":
			return false, nil
		}
	}
	return false, fmt.Errorf("invalid bool %v", value)
}
