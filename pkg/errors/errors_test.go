package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeFileNotFound, "entry point %s does not exist", "main.py")
	if err.Code != ErrCodeFileNotFound {
		t.Errorf("Code = %s, want %s", err.Code, ErrCodeFileNotFound)
	}
	want := "FILE_NOT_FOUND: entry point main.py does not exist"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("open failed")
	err := Wrap(ErrCodeParse, cause, "parse %s", "bad.py")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped error should match cause via errors.Is")
	}
	want := "PARSE_ERROR: parse bad.py: open failed"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{"Match", New(ErrCodeCycle, "cycle"), ErrCodeCycle, true},
		{"Mismatch", New(ErrCodeCycle, "cycle"), ErrCodeParse, false},
		{"Wrapped", fmt.Errorf("outer: %w", New(ErrCodeToolFailed, "uv exited 1")), ErrCodeToolFailed, true},
		{"Plain", fmt.Errorf("plain"), ErrCodeInternal, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeUnresolvedImport, "x")); got != ErrCodeUnresolvedImport {
		t.Errorf("GetCode = %s, want %s", got, ErrCodeUnresolvedImport)
	}
	if got := GetCode(fmt.Errorf("plain")); got != "" {
		t.Errorf("GetCode(plain) = %s, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(New(ErrCodeInvalidInput, "target is required")); got != "target is required" {
		t.Errorf("UserMessage = %q", got)
	}
	if got := UserMessage(fmt.Errorf("plain")); got != "plain" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
}

func TestValidateModuleName(t *testing.T) {
	tests := []struct {
		name    string
		module  string
		wantErr bool
	}{
		{"Simple", "requests", false},
		{"Dotted", "ruamel.yaml", false},
		{"Dashed", "scikit-learn", false},
		{"Underscore", "typing_extensions", false},
		{"Empty", "", true},
		{"Traversal", "../evil", true},
		{"Slash", "evil/pkg", true},
		{"Backslash", `evil\pkg`, true},
		{"LeadingDash", "--index-url", true},
		{"NullByte", "bad\x00name", true},
		{"Control", "bad\nname", true},
		{"Space", "bad name", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateModuleName(tt.module)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateModuleName(%q) = %v, wantErr %v", tt.module, err, tt.wantErr)
			}
		})
	}
}
