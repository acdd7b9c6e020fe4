package services

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/mdeepaktiwari/canvas-ai-backend/internal/cache"
	"github.com/mdeepaktiwari/canvas-ai-backend/internal/domain"
)

// ----- Fakes -----

type fakeImageGen struct {
	calls      int
	lastPrompt string
	lastW      int
	lastH      int
	data       []byte
	err        error
}

func (g *fakeImageGen) Generate(_ context.Context, prompt string, w, h int) ([]byte, string, error) {
	g.calls++
	g.lastPrompt, g.lastW, g.lastH = prompt, w, h
	if g.err != nil {
		return nil, "", g.err
	}
	return g.data, "image/png", nil
}

type fakeAssets struct {
	calls    int
	lastData []byte
	lastCT   string
	url      string
	err      error
}

func (a *fakeAssets) Upload(_ context.Context, data []byte, contentType string) (string, error) {
	a.calls++
	a.lastData, a.lastCT = data, contentType
	if a.err != nil {
		return "", a.err
	}
	return a.url, nil
}

func newImageSvc(t *testing.T) (*ImageService, *fakeImageGen, *fakeAssets, *cache.Memory, string) {
	t.Helper()
	db := newSvcDB(t)
	acc := seedAccount(t, db, 30)
	gen := &fakeImageGen{data: []byte{0x89, 'P', 'N', 'G'}}
	assets := &fakeAssets{url: "https://cdn.example.com/img/1.png"}
	mem := cache.NewMemory()
	svc := NewImageService(db, NewCreditService(db), gen, assets, mem)
	return svc, gen, assets, mem, acc.ID
}

// ----- Tests -----

func TestImageService_Generate(t *testing.T) {
	svc, gen, assets, mem, accID := newImageSvc(t)
	ctx := context.Background()

	res, err := svc.Generate(ctx, accID, "a fox in snow", "512x512")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Balance != 30-domain.ImageGenerationCost {
		t.Fatalf("balance = %d, want %d", res.Balance, 30-domain.ImageGenerationCost)
	}
	if res.Cached {
		t.Fatal("fresh generation reported as cached")
	}
	if res.Record.Kind != domain.KindImage {
		t.Fatalf("kind = %q", res.Record.Kind)
	}
	if res.Record.Output != assets.url {
		t.Fatalf("output = %q, want asset URL", res.Record.Output)
	}
	if gen.lastW != 512 || gen.lastH != 512 {
		t.Fatalf("dims = %dx%d, want 512x512", gen.lastW, gen.lastH)
	}
	if !bytes.Equal(assets.lastData, gen.data) || assets.lastCT != "image/png" {
		t.Fatal("uploader did not receive the generated bytes")
	}

	// The URL is now cached under the canonical key.
	v, cerr := mem.Get(ctx, cache.Key("512x512", "a fox in snow"))
	if cerr != nil || v != assets.url {
		t.Fatalf("cache entry = %q, %v", v, cerr)
	}
}

func TestImageService_Generate_CacheHitSkipsModel(t *testing.T) {
	svc, gen, _, mem, accID := newImageSvc(t)
	ctx := context.Background()

	cached := "https://cdn.example.com/img/earlier.png"
	if err := mem.Set(ctx, cache.Key(domain.DefaultResolution, "sunset"), cached); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	res, err := svc.Generate(ctx, accID, "sunset", "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !res.Cached {
		t.Fatal("expected cache hit")
	}
	if res.Record.Output != cached {
		t.Fatalf("output = %q, want cached URL", res.Record.Output)
	}
	if gen.calls != 0 {
		t.Fatalf("model called %d times on a cache hit", gen.calls)
	}
	// A hit still costs the normal price.
	if res.Balance != 30-domain.ImageGenerationCost {
		t.Fatalf("balance = %d, cache hit should still debit", res.Balance)
	}
}

func TestImageService_Generate_UnknownResolutionFallsBack(t *testing.T) {
	svc, gen, _, _, accID := newImageSvc(t)

	if _, err := svc.Generate(context.Background(), accID, "city at night", "640x480"); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if gen.lastW != 1024 || gen.lastH != 1024 {
		t.Fatalf("dims = %dx%d, want default 1024x1024", gen.lastW, gen.lastH)
	}
}

func TestImageService_Generate_ModelFailureRefunds(t *testing.T) {
	svc, gen, _, _, accID := newImageSvc(t)
	gen.err = errors.New("model overloaded")

	_, err := svc.Generate(context.Background(), accID, "prompt", "")
	if !errors.Is(err, gen.err) {
		t.Fatalf("err = %v, want model error", err)
	}
	bal, berr := svc.Credits.Balance(context.Background(), accID)
	if berr != nil {
		t.Fatalf("balance: %v", berr)
	}
	if bal != 30 {
		t.Fatalf("balance = %d, want refund to 30", bal)
	}
	if n := countImageRecords(t, svc, accID); n != 0 {
		t.Fatalf("failed generation persisted %d records", n)
	}
}

func countImageRecords(t *testing.T, svc *ImageService, accountID string) int64 {
	t.Helper()
	_, total, err := NewHistoryService(svc.DB).ListPage(context.Background(), accountID, true, 1, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	return total
}

func TestImageService_Generate_UploadFailureRefunds(t *testing.T) {
	svc, _, assets, _, accID := newImageSvc(t)
	assets.err = errors.New("bucket unavailable")

	_, err := svc.Generate(context.Background(), accID, "prompt", "")
	if !errors.Is(err, assets.err) {
		t.Fatalf("err = %v, want upload error", err)
	}
	bal, berr := svc.Credits.Balance(context.Background(), accID)
	if berr != nil {
		t.Fatalf("balance: %v", berr)
	}
	if bal != 30 {
		t.Fatalf("balance = %d, want refund to 30", bal)
	}
}

func TestImageService_Generate_PersistFailureRefunds(t *testing.T) {
	ctx := context.Background()

	t.Run("cache miss", func(t *testing.T) {
		svc, _, _, _, accID := newImageSvc(t)
		if err := svc.DB.Migrator().DropTable(&domain.GenerationRecord{}); err != nil {
			t.Fatalf("drop table: %v", err)
		}

		if _, err := svc.Generate(ctx, accID, "prompt", ""); err == nil {
			t.Fatal("Generate succeeded without a generations table")
		}
		bal, berr := svc.Credits.Balance(ctx, accID)
		if berr != nil {
			t.Fatalf("balance: %v", berr)
		}
		if bal != 30 {
			t.Fatalf("balance = %d, want refund to 30", bal)
		}
	})

	t.Run("cache hit", func(t *testing.T) {
		svc, _, _, mem, accID := newImageSvc(t)
		if err := mem.Set(ctx, cache.Key(domain.DefaultResolution, "sunset"), "https://cdn/old.png"); err != nil {
			t.Fatalf("seed cache: %v", err)
		}
		if err := svc.DB.Migrator().DropTable(&domain.GenerationRecord{}); err != nil {
			t.Fatalf("drop table: %v", err)
		}

		if _, err := svc.Generate(ctx, accID, "sunset", ""); err == nil {
			t.Fatal("cache-hit Generate succeeded without a generations table")
		}
		bal, berr := svc.Credits.Balance(ctx, accID)
		if berr != nil {
			t.Fatalf("balance: %v", berr)
		}
		if bal != 30 {
			t.Fatalf("balance = %d, want refund to 30", bal)
		}
	})
}

func TestImageService_Generate_EmptyPrompt(t *testing.T) {
	svc, _, _, _, accID := newImageSvc(t)

	if _, err := svc.Generate(context.Background(), accID, "   ", ""); !errors.Is(err, ErrEmptyPrompt) {
		t.Fatalf("err = %v, want ErrEmptyPrompt", err)
	}
}

func TestImageService_Generate_InsufficientCredits(t *testing.T) {
	db := newSvcDB(t)
	acc := seedAccount(t, db, domain.ImageGenerationCost-1)
	svc := NewImageService(db, NewCreditService(db), &fakeImageGen{data: []byte{1}}, &fakeAssets{url: "u"}, cache.NewMemory())

	if _, err := svc.Generate(context.Background(), acc.ID, "prompt", ""); !errors.Is(err, ErrInsufficientCredits) {
		t.Fatalf("err = %v, want ErrInsufficientCredits", err)
	}
}
