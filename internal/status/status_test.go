package status

import "testing"

func TestStatusError(t *testing.T) {
	tests := []struct {
		name string
		s    Status
		want string
	}{
		{"kind without message", Status{Kind: ResourceUnavailable}, "ResourceUnavailable"},
		{"with message", Errorf(ConfigurationError, "missing %s", "uri"), "ConfigurationError: missing uri"},
		{"general", Error(GeneralError), "GeneralError"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStatusOkFailed(t *testing.T) {
	if !OKStatus.Ok() {
		t.Error("OKStatus.Ok() = false, want true")
	}
	if OKStatus.Failed() {
		t.Error("OKStatus.Failed() = true, want false")
	}
	bad := Error(OperationCanceled)
	if bad.Ok() {
		t.Error("canceled status reports Ok()")
	}
}

func TestResultOkFailed(t *testing.T) {
	ok := Ok(42)
	if !ok.Ok() || ok.Value != 42 {
		t.Errorf("Ok(42) = %+v, want Ok with Value=42", ok)
	}

	failed := Fail[int](Error(ResourceUnavailable))
	if failed.Failed() != true || failed.Value != 0 {
		t.Errorf("Fail result = %+v, want zero value and Failed()=true", failed)
	}
}

func TestFromError(t *testing.T) {
	if s := FromError(nil); !s.Ok() {
		t.Errorf("FromError(nil) = %+v, want OK", s)
	}
	orig := Error(ServiceUnavailable)
	if s := FromError(orig); s.Kind != ServiceUnavailable {
		t.Errorf("FromError(Status) = %+v, want kind preserved", s)
	}
}
