package state_test

import (
	"testing"
	"time"

	"github.com/ardanlabs/ledger/foundation/ledger/database"
	"github.com/ardanlabs/ledger/foundation/ledger/state"
)

func TestRetarget(t *testing.T) {
	d := state.DefaultDifficulty()

	t.Log("Given the need to keep blocks near the target cadence.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen blocks arrive exactly on time.", testID)
		{
			if got := d.Retarget(5000, 300*time.Second); got != 5000 {
				t.Fatalf("\t%s\tTest %d:\tShould keep the work : got %d", failed, testID, got)
			}
			t.Logf("\t%s\tTest %d:\tShould keep the work.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen blocks arrive instantly or never.", testID)
		{
			if got := d.Retarget(1, 0); got != d.MinWork {
				t.Fatalf("\t%s\tTest %d:\tShould clamp to the minimum : got %d", failed, testID, got)
			}
			if got := d.Retarget(d.MaxWork, 24*time.Hour); got != d.MaxWork {
				t.Fatalf("\t%s\tTest %d:\tShould clamp to the maximum : got %d", failed, testID, got)
			}
			if got := d.Retarget(1000, -time.Second); got != 975 {
				t.Fatalf("\t%s\tTest %d:\tShould treat a negative interval as zero : got %d", failed, testID, got)
			}
			t.Logf("\t%s\tTest %d:\tShould stay within the bounds.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen the network can solve work 5000 in 300 seconds.", testID)
		{
			const equilibrium = 5000

			work := d.InitialWork
			for range 1000 {
				elapsed := time.Duration(float64(time.Second) * 300 * equilibrium / float64(work))
				work = d.Retarget(work, elapsed)

				if work < d.MinWork || work > d.MaxWork {
					t.Fatalf("\t%s\tTest %d:\tShould stay within the bounds : got %d", failed, testID, work)
				}
			}

			if work < equilibrium-50 || work > equilibrium+50 {
				t.Fatalf("\t%s\tTest %d:\tShould converge within 1%% : got %d", failed, testID, work)
			}
			t.Logf("\t%s\tTest %d:\tShould converge within 1%%.", success, testID)
		}
	}
}

func TestBaseReward(t *testing.T) {
	tt := []struct {
		height uint64
		reward uint64
	}{
		{2, 25},
		{222221, 25},
		{222222, 1},
		{1_000_000, 1},
	}

	t.Log("Given the need to mint the base reward by height.")
	{
		for testID, tst := range tt {
			if got := state.BaseReward(tst.height); got != tst.reward {
				t.Fatalf("\t%s\tTest %d:\tShould pay %d at height %d : got %d", failed, testID, tst.reward, tst.height, got)
			}
			t.Logf("\t%s\tTest %d:\tShould pay %d at height %d.", success, testID, tst.reward, tst.height)
		}
	}
}

func TestSolutionHash(t *testing.T) {
	const (
		hash  = "f8a35011de971aaf84ef73dc656b2d8810a0d8bd7aff6a857a1288b7c8f59bc7"
		value = 273380306706071
	)

	t.Log("Given the need to check a mining solution.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen hashing on top of the genesis block.", testID)
		{
			genesis := database.GenesisBlock(time.Now())

			got := state.SolutionHash("k74tq2hsh6", genesis, []byte("abc"))
			if got != hash {
				t.Fatalf("\t%s\tTest %d:\tShould produce the expected hash : got %s", failed, testID, got)
			}
			t.Logf("\t%s\tTest %d:\tShould produce the expected hash.", success, testID)

			if !state.MeetsWork(got, value) {
				t.Fatalf("\t%s\tTest %d:\tShould meet work equal to the prefix.", failed, testID)
			}
			if state.MeetsWork(got, value-1) {
				t.Fatalf("\t%s\tTest %d:\tShould miss work below the prefix.", failed, testID)
			}
			if state.MeetsWork("zz", value) {
				t.Fatalf("\t%s\tTest %d:\tShould reject a malformed hash.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould compare the prefix against the work.", success, testID)
		}
	}
}
