package closure

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	closureruntime "github.com/wippyai/closure-runtime"
	rterrors "github.com/wippyai/closure-runtime/errors"
	"github.com/wippyai/closure-runtime/invoker"
	"github.com/wippyai/closure-runtime/shape"
	"github.com/wippyai/closure-runtime/variant"
)

func TestClosure_WriteBack(t *testing.T) {
	c := New[shape.Void, shape.Void](variant.MustFrom(5), func(ctx *int) { *ctx += 10 },
		closureruntime.WriteBack, WithRegistry(invoker.NewRegistry(nil)))

	if _, err := c.Call(); err != nil {
		t.Fatal(err)
	}
	if got := variant.MustAs[int](c.Context()); got != 15 {
		t.Errorf("context = %d, want 15", got)
	}
}

func TestClosure_Discard(t *testing.T) {
	c := New[shape.Void, shape.Void](variant.MustFrom(5), func(ctx *int) { *ctx += 10 },
		closureruntime.Discard, WithRegistry(invoker.NewRegistry(nil)))

	for i := 0; i < 2; i++ {
		if _, err := c.Call(); err != nil {
			t.Fatal(err)
		}
	}
	if got := variant.MustAs[int](c.Context()); got != 5 {
		t.Errorf("context = %d, want 5", got)
	}
}

func TestClosure_InvokeWithArg(t *testing.T) {
	c, err := Of[int, int](10, func(ctx int, a int) int { return ctx * a },
		closureruntime.WriteBack, WithRegistry(invoker.NewRegistry(nil)))
	if err != nil {
		t.Fatal(err)
	}

	got, err := c.Invoke(3)
	if err != nil {
		t.Fatal(err)
	}
	if got != 30 {
		t.Errorf("Invoke(3) = %d, want 30", got)
	}
	if variant.MustAs[int](c.Context()) != 10 {
		t.Errorf("context = %v, want 10", c.Context())
	}
}

func TestClosure_InvokeRef(t *testing.T) {
	c := New[[]string, shape.Void](variant.MustFrom("x"), func(ctx string, a *[]string) {
		*a = append(*a, ctx)
	}, closureruntime.WriteBack, WithRegistry(invoker.NewRegistry(nil)))

	var acc []string
	for i := 0; i < 2; i++ {
		if _, err := c.InvokeRef(&acc); err != nil {
			t.Fatal(err)
		}
	}
	if !reflect.DeepEqual(acc, []string{"x", "x"}) {
		t.Errorf("acc = %v", acc)
	}
}

func TestClosure_LocalCacheReuse(t *testing.T) {
	r := invoker.NewRegistry(nil)
	fn := func(ctx *int, a int) { *ctx += a }

	a := New[int, shape.Void](variant.MustFrom(0), fn, closureruntime.WriteBack, WithRegistry(r))
	b := New[int, shape.Void](variant.MustFrom(100), fn, closureruntime.WriteBack, WithRegistry(r))

	for i := 0; i < 5; i++ {
		if _, err := a.Invoke(1); err != nil {
			t.Fatal(err)
		}
		if _, err := b.Invoke(1); err != nil {
			t.Fatal(err)
		}
	}

	s := r.Stats()
	if s.Classifications != 1 {
		t.Errorf("Classifications = %d, want 1", s.Classifications)
	}
	// One miss for the first closure, one hit for the second; later calls
	// are served by each closure's local entry.
	if s.Misses != 1 || s.Hits != 1 {
		t.Errorf("Misses = %d, Hits = %d, want 1, 1", s.Misses, s.Hits)
	}
	if variant.MustAs[int](a.Context()) != 5 || variant.MustAs[int](b.Context()) != 105 {
		t.Errorf("contexts = %v, %v", a.Context(), b.Context())
	}
}

func TestClosure_WithoutLocalCache(t *testing.T) {
	r := invoker.NewRegistry(nil)
	c := New[shape.Void, int](variant.MustFrom(2), func(ctx int) int { return ctx },
		closureruntime.WriteBack, WithRegistry(r), WithoutLocalCache())

	for i := 0; i < 3; i++ {
		if _, err := c.Call(); err != nil {
			t.Fatal(err)
		}
	}
	if s := r.Stats(); s.Hits != 2 || s.Misses != 1 {
		t.Errorf("Hits = %d, Misses = %d, want 2, 1", s.Hits, s.Misses)
	}
}

func TestClosure_ClearInvalidatesLocalEntry(t *testing.T) {
	r := invoker.NewRegistry(nil)
	c := New[shape.Void, int](variant.MustFrom(2), func(ctx int) int { return ctx * 2 },
		closureruntime.WriteBack, WithRegistry(r))

	if _, err := c.Call(); err != nil {
		t.Fatal(err)
	}
	r.Clear()
	got, err := c.Call()
	if err != nil {
		t.Fatal(err)
	}
	if got != 4 {
		t.Errorf("Call = %d, want 4", got)
	}
	if s := r.Stats(); s.Classifications != 2 || s.Entries != 1 {
		t.Errorf("Classifications = %d, Entries = %d, want 2, 1", s.Classifications, s.Entries)
	}
}

func TestClosure_ConcurrentInvokeAndClear(t *testing.T) {
	r := invoker.NewRegistry(nil)
	c := New[int, int](variant.MustFrom(3), func(ctx int, a int) int { return ctx + a },
		closureruntime.WriteBack, WithRegistry(r))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if i == 0 && j%10 == 0 {
					r.Clear()
				}
				got, err := c.Invoke(j)
				if err != nil {
					t.Errorf("Invoke failed: %v", err)
					return
				}
				if got != 3+j {
					t.Errorf("Invoke(%d) = %d", j, got)
					return
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestClosure_SerializedWriteBack(t *testing.T) {
	c := New[int, shape.Void](variant.MustFrom(0), func(ctx *int, a int) { *ctx += a },
		closureruntime.WriteBack, WithRegistry(invoker.NewRegistry(nil)))

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				mu.Lock()
				_, err := c.Invoke(1)
				mu.Unlock()
				if err != nil {
					t.Errorf("Invoke failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if got := variant.MustAs[int](c.Context()); got != 800 {
		t.Errorf("context = %d, want 800", got)
	}
}

func TestClosure_EmptyCallback(t *testing.T) {
	var nilFunc func(*int)
	for _, fn := range []any{nil, nilFunc, (*Multicast[func(*int)])(nil)} {
		c := New[shape.Void, shape.Void](variant.MustFrom(1), fn, closureruntime.WriteBack)

		if _, err := c.Call(); err != nil {
			t.Errorf("Call on empty closure: %v", err)
		}
		if _, err := c.Invoke(shape.Void{}); err != nil {
			t.Errorf("Invoke on empty closure: %v", err)
		}
		if _, err := c.InvokeRef(&shape.Void{}); !errors.Is(err, rterrors.ErrEmptyCallback) {
			t.Errorf("InvokeRef err = %v, want empty callback", err)
		}
		if err := c.Validate(); err != nil {
			t.Errorf("Validate on empty closure: %v", err)
		}
		if c.CallbackType() != nil {
			t.Errorf("CallbackType = %v, want nil", c.CallbackType())
		}
	}
}

func TestClosure_Validate(t *testing.T) {
	r := invoker.NewRegistry(nil)

	ok := New[int, int](variant.MustFrom(1), func(int, int) int { return 0 },
		closureruntime.WriteBack, WithRegistry(r))
	if err := ok.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	wrong := New[string, int](variant.MustFrom(1), func(int, int) int { return 0 },
		closureruntime.WriteBack, WithRegistry(r))
	err := wrong.Validate()
	if !errors.Is(err, rterrors.ErrCast) || !rterrors.IsConstruction(err) {
		t.Errorf("Validate err = %v, want construction cast error", err)
	}

	noCtx := New[shape.Void, shape.Void](variant.MustFrom(1), func() {},
		closureruntime.WriteBack, WithRegistry(r))
	if err := noCtx.Validate(); !errors.Is(err, rterrors.ErrInvalidShape) {
		t.Errorf("Validate err = %v, want invalid shape", err)
	}
}

func TestClosure_TryInvoke(t *testing.T) {
	castErr := rterrors.Cast(rterrors.PhaseVariant, "string", "int")
	plain := errors.New("plain")

	tests := []struct {
		name     string
		fn       any
		policy   closureruntime.ErrorPolicy
		wantOK   bool
		wantErr  bool // error returned to the caller
		wantSame error
	}{
		{"success", func(ctx int, a int) (int, error) { return ctx + a, nil }, closureruntime.HandleExpected, true, false, nil},
		{"returned cast error", func(int, int) (int, error) { return 0, castErr }, closureruntime.HandleExpected, false, false, castErr},
		{"panicked cast error", func(int, int) (int, error) { panic(castErr) }, closureruntime.HandleExpected, false, false, castErr},
		{"plain error handle all", func(int, int) (int, error) { return 0, plain }, closureruntime.HandleAll, false, false, plain},
		{"plain error handle none", func(int, int) (int, error) { return 0, plain }, closureruntime.HandleNone, false, true, plain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New[int, int](variant.MustFrom(1), tt.fn, closureruntime.WriteBack,
				WithRegistry(invoker.NewRegistry(nil)))

			res, err := c.TryInvoke(2, tt.policy)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if res.OK() != tt.wantOK {
				t.Errorf("OK = %v, want %v", res.OK(), tt.wantOK)
			}
			if tt.wantSame != nil && res.Err() != tt.wantSame {
				t.Errorf("Err = %v, want exactly %v", res.Err(), tt.wantSame)
			}
			if tt.wantOK && res.Value() != 3 {
				t.Errorf("Value = %d, want 3", res.Value())
			}
		})
	}
}

func TestClosure_TryInvokePanicValue(t *testing.T) {
	c := New[shape.Void, shape.Void](variant.MustFrom(1), func(int) { panic("boom") },
		closureruntime.WriteBack, WithRegistry(invoker.NewRegistry(nil)))

	res, err := c.TryInvoke(shape.Void{}, closureruntime.HandleExpected)
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if !errors.Is(res.Err(), rterrors.ErrPanic) {
		t.Errorf("Err = %v, want panic error", res.Err())
	}

	defer func() {
		if rec := recover(); rec != "boom" {
			t.Errorf("recovered %v, want boom", rec)
		}
	}()
	_, _ = c.TryInvoke(shape.Void{}, closureruntime.HandleNone)
	t.Error("HandleNone must re-panic")
}

func TestClosure_TryInvokeConstructionError(t *testing.T) {
	c := New[string, int](variant.MustFrom(1), func(int, int) int { return 0 },
		closureruntime.WriteBack, WithRegistry(invoker.NewRegistry(nil)))

	res, err := c.TryInvoke("x", closureruntime.HandleExpected)
	if !rterrors.IsConstruction(err) {
		t.Fatalf("err = %v, want construction error surfaced", err)
	}
	if res.OK() {
		t.Error("result must be a failure")
	}

	if _, err := c.TryInvoke("x", closureruntime.HandleAll); err != nil {
		t.Errorf("HandleAll must suppress construction errors, got %v", err)
	}
}

func TestClosure_Equal(t *testing.T) {
	fn := func(ctx *int) { *ctx++ }
	other := func(ctx *int) { *ctx-- }

	base := New[shape.Void, shape.Void](variant.MustFrom(1), fn, closureruntime.WriteBack)

	tests := []struct {
		name string
		o    *Closure[shape.Void, shape.Void]
		want bool
	}{
		{"same", New[shape.Void, shape.Void](variant.MustFrom(1), fn, closureruntime.WriteBack), true},
		{"other context", New[shape.Void, shape.Void](variant.MustFrom(2), fn, closureruntime.WriteBack), false},
		{"other callback", New[shape.Void, shape.Void](variant.MustFrom(1), other, closureruntime.WriteBack), false},
		{"other policy", New[shape.Void, shape.Void](variant.MustFrom(1), fn, closureruntime.Discard), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Equal(tt.o); got != tt.want {
				t.Errorf("Equal = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIs(t *testing.T) {
	c := New[int, string](variant.MustFrom(1.5), func(ctx float64, a int) string { return "" },
		closureruntime.WriteBack)

	if !Is[float64, func(float64, int) string](c) {
		t.Error("exact context and callback type should match")
	}
	if !Is[variant.Variant, func(float64, int) string](c) {
		t.Error("Variant context should match any context")
	}
	if Is[int, func(float64, int) string](c) {
		t.Error("wrong context type matched")
	}
	if Is[float64, func(float64, int) int](c) {
		t.Error("wrong callback type matched")
	}
	if Is[float64, func(float64, int) string](nil) {
		t.Error("nil wrapper matched")
	}
}

func TestClosure_Accessors(t *testing.T) {
	fn := func(ctx *int) error { return nil }
	c := New[shape.Void, shape.Void](variant.MustFrom(1), fn, closureruntime.Discard)

	if c.Policy() != closureruntime.Discard {
		t.Errorf("Policy = %v", c.Policy())
	}
	if c.ContextType() != reflect.TypeFor[int]() {
		t.Errorf("ContextType = %v", c.ContextType())
	}
	if c.CallbackType() != reflect.TypeOf(fn) {
		t.Errorf("CallbackType = %v", c.CallbackType())
	}
	s, err := c.Shape()
	if err != nil {
		t.Fatal(err)
	}
	if !s.ByRefContext || !s.ReturnsError {
		t.Errorf("Shape = %v", s)
	}

	c.SetContext(variant.MustFrom("now a string"))
	if c.ContextType() != reflect.TypeFor[string]() {
		t.Errorf("ContextType after SetContext = %v", c.ContextType())
	}
	if _, err := c.Call(); !errors.Is(err, rterrors.ErrCast) {
		t.Errorf("Call with mismatched context err = %v", err)
	}
}

func TestOf_NilReference(t *testing.T) {
	var p *int
	if _, err := Of[shape.Void, shape.Void](p, func(*int) {}, closureruntime.WriteBack); !errors.Is(err, rterrors.ErrNullArgument) {
		t.Errorf("err = %v, want null argument", err)
	}
}
