package variant

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/apd/v3"
)

type caseless string

func (c caseless) Equal(other any) bool {
	o, ok := other.(caseless)
	return ok && strings.EqualFold(string(c), string(o))
}

type bag struct {
	Items []int
}

type hook struct {
	Name string
	Fn   func()
}

func TestVariant_Equal(t *testing.T) {
	nan := math.NaN()
	shared := &point{1, 2}
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	withFunc := MustFrom(hook{"tick", func() {}})
	funcs := MustFrom([]func(){func() {}})

	tests := []struct {
		name string
		a, b Variant
		want bool
	}{
		{"same int", MustFrom(5), MustFrom(5), true},
		{"different int", MustFrom(5), MustFrom(6), false},
		{"int vs int64", MustFrom(5), MustFrom(int64(5)), false},
		{"int32 vs char", MustFrom(int32('a')), MustFrom(Char('a')), false},
		{"nan float64", MustFrom(nan), MustFrom(nan), true},
		{"nan float32", MustFrom(float32(nan)), MustFrom(float32(nan)), true},
		{"signed zero", MustFrom(0.0), MustFrom(math.Copysign(0, -1)), true},
		{"decimal scale", MustFrom(*apd.New(10, -1)), MustFrom(*apd.New(100, -2)), true},
		{"decimal differs", MustFrom(*apd.New(10, -1)), MustFrom(*apd.New(11, -1)), false},
		{"string payload", MustFrom("abc"), MustFrom(strings.Repeat("abc", 1)), true},
		{"struct payload", MustFrom(point{1, 2}), MustFrom(point{1, 2}), true},
		{"slice payload", MustFrom([]int{1, 2}), MustFrom([]int{1, 2}), true},
		{"non-comparable struct", MustFrom(bag{[]int{3}}), MustFrom(bag{[]int{3}}), true},
		{"same pointer", MustFrom(shared), MustFrom(shared), true},
		{"distinct pointers", MustFrom(&point{1, 2}), MustFrom(&point{1, 2}), false},
		{"custom equality", MustFrom(caseless("Go")), MustFrom(caseless("GO")), true},
		{"time same instant", MustFrom(now), MustFrom(now.UTC()), true},
		{"time different instant", MustFrom(now), MustFrom(now.Add(time.Second)), false},
		{"struct with func field to itself", withFunc, withFunc, true},
		{"func slice to itself", funcs, funcs, true},
		{"struct with func field copies", withFunc, MustFrom(hook{"tick", func() {}}), false},
		{"empty", Variant{}, Variant{}, true},
		{"empty vs value", Variant{}, MustFrom(0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal = %v, want %v", got, tt.want)
			}
			if got := tt.b.Equal(tt.a); got != tt.want {
				t.Errorf("Equal not symmetric")
			}
			if tt.want && tt.a.Hash() != tt.b.Hash() {
				t.Errorf("equal variants hash differently: %x vs %x", tt.a.Hash(), tt.b.Hash())
			}
		})
	}
}

func TestVariant_HashSpreads(t *testing.T) {
	seen := make(map[uint64]Variant)
	values := []Variant{
		MustFrom(1), MustFrom(int64(1)), MustFrom(uint(1)), MustFrom(true),
		MustFrom(1.0), MustFrom(float32(1)), MustFrom(Char(1)), MustFrom("1"),
		MustFrom(2), MustFrom(*apd.New(1, 0)), {},
	}
	for _, v := range values {
		h := v.Hash()
		if prev, ok := seen[h]; ok {
			t.Errorf("hash collision between %#v and %#v", prev, v)
		}
		seen[h] = v
	}
}

func TestVariant_HashStable(t *testing.T) {
	v := MustFrom("stable")
	if v.Hash() != v.Hash() {
		t.Error("hash not deterministic")
	}
	f := MustFrom(func() {})
	if !f.Equal(f) {
		t.Error("func payload should equal itself")
	}
}
