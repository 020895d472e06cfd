package testutil

import (
	"errors"
	"os"
	"testing"
)

func TestAssertNoError(t *testing.T) {
	t.Parallel()
	AssertNoError(t, nil)
}

func TestAssertError(t *testing.T) {
	t.Parallel()
	AssertError(t, errors.New("test error"))
}

func TestAssertClose(t *testing.T) {
	t.Parallel()
	AssertClose(t, 1.0000001, 1.0, 1e-6)
	AssertClose(t, -2, -2, 0)
}

func TestWriteTempFile(t *testing.T) {
	t.Parallel()

	path := WriteTempFile(t, "sample.json", `{"a": 1}`)
	data, err := os.ReadFile(path)
	AssertNoError(t, err)
	if string(data) != `{"a": 1}` {
		t.Errorf("content = %q", data)
	}
}
