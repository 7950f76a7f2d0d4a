package app_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

func TestRegisterConcurrentDistinctUsers(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	const n = 32
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := env.userService.Register(ctx, fmt.Sprintf("u%02d", i), "", fmt.Sprintf("Joueur %d", i))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("register: %v", err)
		}
	}
}

func TestRegisterConcurrentSameUser(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	const n = 16
	var wg sync.WaitGroup
	pseudos := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			user, err := env.userService.Register(ctx, "u1", "+22890000001", "Ama Dupont")
			if err != nil {
				t.Errorf("register: %v", err)
				return
			}
			pseudos <- user.Pseudo
		}()
	}
	wg.Wait()
	close(pseudos)

	// Whichever goroutine wins the create, every caller must observe the
	// single stored profile.
	stored, err := env.userService.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	for pseudo := range pseudos {
		if pseudo != stored.Pseudo {
			t.Fatalf("expected stored pseudo %q, got %q", stored.Pseudo, pseudo)
		}
	}
}
