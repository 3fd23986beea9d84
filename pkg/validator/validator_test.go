package validator

import "testing"

type testPayload struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

func TestValidateStructSuccess(t *testing.T) {
	payload := testPayload{
		Email: "alice@example.com",
		Code:  "123456",
	}

	if err := ValidateStruct(payload); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidateStructFailures(t *testing.T) {
	payload := testPayload{
		Email: "invalid",
		Code:  "12ab",
	}

	err := ValidateStruct(payload)
	if err == nil {
		t.Fatal("expected validation error")
	}

	vErrs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}

	if len(vErrs) != 2 {
		t.Fatalf("expected 2 validation errors, got %d", len(vErrs))
	}

	foundEmail := false
	for _, v := range vErrs {
		if v.Field == "email" && v.Tag == "email" {
			foundEmail = true
		}
	}
	if !foundEmail {
		t.Fatal("expected email failure to use the json field name")
	}
}

func TestValidationErrorsMessage(t *testing.T) {
	errs := ValidationErrors{
		{Field: "code", Tag: "len", Param: "6"},
	}

	if errs.Error() != "code failed on len=6" {
		t.Fatalf("unexpected message: %s", errs.Error())
	}
}
