package errs

import (
	"errors"
	"testing"
)

func TestIsFatalOnlyForNativeInit(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"config", Config("bad plugin dir", nil), false},
		{"native_init", NativeInit("dataset load failed", nil), true},
		{"job", Job("bad hex", nil), false},
		{"transient_io", TransientIO("dead worker channel", nil), false},
		{"plain error", errors.New("boom"), false},
	}
	for _, c := range cases {
		if got := IsFatal(c.err); got != c.want {
			t.Errorf("%s: IsFatal() = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestUnwrapExposesUnderlyingCause(t *testing.T) {
	cause := errors.New("disk full")
	err := NativeInit("init_dataset", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to find the wrapped cause")
	}
}
