package capture

import (
	"strconv"
	"strings"
	"testing"
	"time"
)

func testParams() Params {
	return Params{
		Duration:  30 * time.Second,
		FrameRate: 30,
		Quality:   QualityMedium,
		Inputs:    Inputs{ScreenIndex: 1, AudioDevice: "BlackHole 2ch"},
	}
}

func TestQualityTierCRFOrdering(t *testing.T) {
	low, _ := strconv.Atoi(QualityLow.CRF())
	med, _ := strconv.Atoi(QualityMedium.CRF())
	high, _ := strconv.Atoi(QualityHigh.CRF())

	// Lower CRF = higher quality, so the tiers must be strictly decreasing
	// from low to high.
	if !(low > med && med > high) {
		t.Fatalf("expected low > medium > high CRF, got %d, %d, %d", low, med, high)
	}
}

func TestParseQuality(t *testing.T) {
	for _, s := range []string{"low", "medium", "high"} {
		if _, err := ParseQuality(s); err != nil {
			t.Errorf("ParseQuality(%q): %v", s, err)
		}
	}
	if _, err := ParseQuality("ultra"); err == nil {
		t.Errorf("expected error for unknown quality")
	}
}

func TestDarwinCommand(t *testing.T) {
	name, args := darwinBuilder{}.Command("/tmp/out.mp4", testParams())

	if name != "ffmpeg" {
		t.Fatalf("expected ffmpeg, got %s", name)
	}

	joined := strings.Join(args, " ")
	for _, want := range []string{
		"-f avfoundation",
		"-i 1:BlackHole 2ch",
		"-t 30",
		"-crf 23",
		"-movflags +faststart",
		"-pix_fmt yuv420p",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing %q in %q", want, joined)
		}
	}
	if args[len(args)-1] != "/tmp/out.mp4" {
		t.Errorf("output path must be the final argument, got %q", args[len(args)-1])
	}
}

func TestLinuxCommand(t *testing.T) {
	b := linuxBuilder{resolution: func() string { return "2560x1440" }}
	_, args := b.Command("/tmp/out.mp4", testParams())

	joined := strings.Join(args, " ")
	for _, want := range []string{
		"-f x11grab",
		"-video_size 2560x1440",
		"-i :0.1",
		"-f pulse",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing %q in %q", want, joined)
		}
	}
}

func TestWindowsCommand(t *testing.T) {
	_, args := windowsBuilder{}.Command("C:\\out.mp4", testParams())

	joined := strings.Join(args, " ")
	for _, want := range []string{
		"-f gdigrab",
		"-i desktop",
		"audio=BlackHole 2ch",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing %q in %q", want, joined)
		}
	}
}

func TestCRFFollowsTier(t *testing.T) {
	p := testParams()
	for _, tier := range []Quality{QualityLow, QualityMedium, QualityHigh} {
		p.Quality = tier
		_, args := darwinBuilder{}.Command("/tmp/out.mp4", p)
		joined := strings.Join(args, " ")
		if !strings.Contains(joined, "-crf "+tier.CRF()) {
			t.Errorf("tier %s: missing -crf %s in %q", tier, tier.CRF(), joined)
		}
	}
}
