package utils

import "testing"

func TestGenerateOTP(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		otp, err := GenerateOTP()
		if err != nil {
			t.Fatalf("GenerateOTP failed: %v", err)
		}
		if len(otp) != 6 {
			t.Fatalf("OTP %q is not 6 characters", otp)
		}
		for _, c := range otp {
			if c < '0' || c > '9' {
				t.Fatalf("OTP %q has non-digit %q", otp, c)
			}
		}
		seen[otp] = true
	}
	// 50 draws from a million values collapsing to one would mean a broken
	// generator.
	if len(seen) < 2 {
		t.Error("OTP generator returned the same code 50 times")
	}
}
