package processing

import (
	"math"
	"testing"
)

func TestDimensionPlannerPlan(t *testing.T) {
	planner := NewDimensionPlanner(6000, 30.0)

	tests := []struct {
		name         string
		srcW, srcH   int
		physW, physH float64
		density      float64
		wantScale    float64
		wantW, wantH int
		wantLimited  bool
	}{
		{
			name: "upscale to reach target density",
			srcW: 1000, srcH: 2000,
			physW: 4, physH: 8, density: 300,
			wantScale: 1.2, wantW: 1200, wantH: 2400,
			wantLimited: false,
		},
		{
			name: "density already met shrinks below source",
			srcW: 3000, srcH: 3000,
			physW: 5, physH: 5, density: 300,
			wantScale: 0.5, wantW: 1500, wantH: 1500,
			wantLimited: false,
		},
		{
			name: "mismatched aspect takes the larger axis scale",
			srcW: 1000, srcH: 1000,
			physW: 4, physH: 8, density: 300,
			wantScale: 2.4, wantW: 2400, wantH: 2400,
			wantLimited: false,
		},
		{
			name: "side limit clamps the binding axis",
			srcW: 2000, srcH: 1000,
			physW: 24, physH: 12, density: 300,
			wantScale: 3.0, wantW: 6000, wantH: 3000,
			wantLimited: true,
		},
		{
			name: "side limit preserves aspect ratio",
			srcW: 4000, srcH: 1000,
			physW: 40, physH: 10, density: 300,
			wantScale: 1.5, wantW: 6000, wantH: 1500,
			wantLimited: true,
		},
		{
			name: "megapixel budget shrinks square output",
			srcW: 1000, srcH: 1000,
			physW: 20, physH: 20, density: 300,
			wantScale: 6 * math.Sqrt(30.0/36.0), wantW: 5477, wantH: 5477,
			wantLimited: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := planner.Plan(tt.srcW, tt.srcH, tt.physW, tt.physH, tt.density)

			if math.Abs(plan.Scale-tt.wantScale) > 1e-9 {
				t.Errorf("Scale = %v, want %v", plan.Scale, tt.wantScale)
			}
			if plan.OutputWidth != tt.wantW {
				t.Errorf("OutputWidth = %d, want %d", plan.OutputWidth, tt.wantW)
			}
			if plan.OutputHeight != tt.wantH {
				t.Errorf("OutputHeight = %d, want %d", plan.OutputHeight, tt.wantH)
			}
			if plan.Limited != tt.wantLimited {
				t.Errorf("Limited = %v, want %v", plan.Limited, tt.wantLimited)
			}
		})
	}
}

func TestDimensionPlannerPlanLimitedStaysWithinBudget(t *testing.T) {
	planner := NewDimensionPlanner(6000, 30.0)

	plan := planner.Plan(1000, 1000, 20, 20, 300)
	if !plan.Limited {
		t.Fatal("expected plan to be limited")
	}

	megapixels := float64(plan.OutputWidth) * float64(plan.OutputHeight) / 1e6
	if megapixels > 30.0+0.01 {
		t.Errorf("output %dx%d exceeds megapixel budget: %.2f MP", plan.OutputWidth, plan.OutputHeight, megapixels)
	}
	if plan.OutputWidth > 6000 || plan.OutputHeight > 6000 {
		t.Errorf("output %dx%d exceeds side limit", plan.OutputWidth, plan.OutputHeight)
	}
}

func TestCalculateDPI(t *testing.T) {
	tests := []struct {
		name         string
		srcW, srcH   int
		physW, physH float64
		wantH, wantV float64
		wantAvg      float64
		wantQuality  DPIQuality
	}{
		{
			name: "excellent at 300 dpi",
			srcW: 3000, srcH: 2400, physW: 10, physH: 8,
			wantH: 300, wantV: 300, wantAvg: 300,
			wantQuality: DPIQualityExcellent,
		},
		{
			name: "good at 200 dpi",
			srcW: 1000, srcH: 1000, physW: 5, physH: 5,
			wantH: 200, wantV: 200, wantAvg: 200,
			wantQuality: DPIQualityGood,
		},
		{
			name: "fair at 150 dpi",
			srcW: 900, srcH: 600, physW: 6, physH: 4,
			wantH: 150, wantV: 150, wantAvg: 150,
			wantQuality: DPIQualityFair,
		},
		{
			name: "poor below 150 dpi",
			srcW: 1000, srcH: 1000, physW: 20, physH: 20,
			wantH: 50, wantV: 50, wantAvg: 50,
			wantQuality: DPIQualityPoor,
		},
		{
			name: "averages unequal axes",
			srcW: 3000, srcH: 1000, physW: 10, physH: 10,
			wantH: 300, wantV: 100, wantAvg: 200,
			wantQuality: DPIQualityGood,
		},
		{
			name: "rounds to one decimal",
			srcW: 1000, srcH: 1000, physW: 3, physH: 3,
			wantH: 333.3, wantV: 333.3, wantAvg: 333.3,
			wantQuality: DPIQualityExcellent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := CalculateDPI(tt.srcW, tt.srcH, tt.physW, tt.physH)

			if report.HorizontalDPI != tt.wantH {
				t.Errorf("HorizontalDPI = %v, want %v", report.HorizontalDPI, tt.wantH)
			}
			if report.VerticalDPI != tt.wantV {
				t.Errorf("VerticalDPI = %v, want %v", report.VerticalDPI, tt.wantV)
			}
			if report.AverageDPI != tt.wantAvg {
				t.Errorf("AverageDPI = %v, want %v", report.AverageDPI, tt.wantAvg)
			}
			if report.Quality != tt.wantQuality {
				t.Errorf("Quality = %q, want %q", report.Quality, tt.wantQuality)
			}
		})
	}
}
