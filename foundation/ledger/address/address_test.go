package address_test

import (
	"fmt"
	"testing"

	"github.com/ardanlabs/ledger/foundation/ledger/address"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestMakeV2(t *testing.T) {
	type table struct {
		secret string
		v2     string
		v1     string
	}

	tt := []table{
		{secret: "", v2: "krqtnrp18z", v1: "e3b0c44298"},
		{secret: "password", v2: "kuf56v2ikn", v1: "5e884898da"},
		{secret: "test", v2: "k74tq2hsh6", v1: "9f86d08188"},
		{secret: "secret", v2: "k0ybd768c9", v1: "2bb80d537b"},
	}

	t.Log("Given the need to derive addresses from secrets.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling secret %q.", testID, tst.secret)
			{
				got := address.MakeV2(tst.secret)
				if got != tst.v2 {
					t.Fatalf("\t%s\tTest %d:\tShould derive the v2 address : got %s, exp %s", failed, testID, got, tst.v2)
				}
				t.Logf("\t%s\tTest %d:\tShould derive the v2 address.", success, testID)

				if again := address.MakeV2(tst.secret); again != got {
					t.Fatalf("\t%s\tTest %d:\tShould be deterministic : got %s, exp %s", failed, testID, again, got)
				}
				t.Logf("\t%s\tTest %d:\tShould be deterministic.", success, testID)

				if got := address.MakeV1(tst.secret); got != tst.v1 {
					t.Fatalf("\t%s\tTest %d:\tShould derive the v1 address : got %s, exp %s", failed, testID, got, tst.v1)
				}
				t.Logf("\t%s\tTest %d:\tShould derive the v1 address.", success, testID)
			}
		}
	}
}

func TestDistinctSecrets(t *testing.T) {
	t.Log("Given the need for different secrets to produce different addresses.")
	{
		seen := make(map[string]string)
		for i := 0; i < 2000; i++ {
			secret := fmt.Sprintf("secret-%d", i)
			addr := address.MakeV2(secret)

			if !address.IsValid(addr, false) {
				t.Fatalf("\t%s\tShould produce a valid address for %q : got %s", failed, secret, addr)
			}

			if prev, exists := seen[addr]; exists {
				t.Fatalf("\t%s\tShould not collide : %q and %q both map to %s", failed, prev, secret, addr)
			}
			seen[addr] = secret
		}
		t.Logf("\t%s\tShould produce unique valid addresses.", success)
	}
}

func TestVerify(t *testing.T) {
	t.Log("Given the need to authenticate a secret against an address.")
	{
		if !address.Verify("test", "K74TQ2HSH6", false) {
			t.Fatalf("\t%s\tShould accept the v2 address in any case.", failed)
		}
		t.Logf("\t%s\tShould accept the v2 address in any case.", success)

		if address.Verify("test", "9f86d08188", false) {
			t.Fatalf("\t%s\tShould reject the v1 address when legacy is off.", failed)
		}
		t.Logf("\t%s\tShould reject the v1 address when legacy is off.", success)

		if !address.Verify("test", "9f86d08188", true) {
			t.Fatalf("\t%s\tShould accept the v1 address when legacy is on.", failed)
		}
		t.Logf("\t%s\tShould accept the v1 address when legacy is on.", success)

		if address.Verify("other", "k74tq2hsh6", true) {
			t.Fatalf("\t%s\tShould reject a different secret.", failed)
		}
		t.Logf("\t%s\tShould reject a different secret.", success)
	}
}

func TestIsValid(t *testing.T) {
	tt := []struct {
		address string
		allowV1 bool
		valid   bool
	}{
		{"k74tq2hsh6", false, true},
		{"k74tq2hsh", false, false},
		{"x74tq2hsh6", false, false},
		{"k74tq2hs-6", false, false},
		{"9f86d08188", false, false},
		{"9f86d08188", true, true},
		{"9f86d0818z", true, false},
		{"", true, false},
	}

	t.Log("Given the need to validate the address grammar.")
	{
		for testID, tst := range tt {
			if got := address.IsValid(tst.address, tst.allowV1); got != tst.valid {
				t.Errorf("\t%s\tTest %d:\tShould report %q valid=%t : got %t", failed, testID, tst.address, tst.valid, got)
				continue
			}
			t.Logf("\t%s\tTest %d:\tShould report %q valid=%t.", success, testID, tst.address, tst.valid)
		}
	}
}
