package domain

import (
	"testing"
	"unicode/utf8"
)

// FuzzParseCartID checks that parsing never panics on arbitrary input and
// that every accepted ID round-trips through String unchanged.
func FuzzParseCartID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add("'; DROP TABLE carts;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))
	f.Add("550e8400-e29b-41d4-a716-446655440000\x00suffix")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseCartID(input)
		if err != nil {
			return
		}
		if id.IsNil() {
			t.Error("nil cart ID was accepted")
		}
		roundTrip, err := ParseCartID(id.String())
		if err != nil {
			t.Errorf("valid ID failed round-trip: %v", err)
		}
		if roundTrip != id {
			t.Error("round-trip changed ID value")
		}
		if !utf8.ValidString(input) {
			t.Error("non-UTF8 input was accepted")
		}
	})
}
