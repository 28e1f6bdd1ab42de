package rawfile

import (
	"context"
	"testing"
)

func TestOpenSelectsDriverFromEnv(t *testing.T) {
	ctx := context.Background()

	t.Setenv("XRFCORE_RAWFILE_DRIVER", "memory")
	store, err := Open(ctx)
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if store.Driver() != DriverMemory {
		t.Fatalf("driver: %s", store.Driver())
	}

	t.Setenv("XRFCORE_RAWFILE_DRIVER", "fs")
	t.Setenv("XRFCORE_RAWFILE_FS_ROOT", t.TempDir())
	store, err = Open(ctx)
	if err != nil {
		t.Fatalf("open fs: %v", err)
	}
	if store.Driver() != DriverFilesystem {
		t.Fatalf("driver: %s", store.Driver())
	}

	t.Setenv("XRFCORE_RAWFILE_DRIVER", "bogus")
	if _, err := Open(ctx); err == nil {
		t.Fatalf("unknown driver accepted")
	}
}
