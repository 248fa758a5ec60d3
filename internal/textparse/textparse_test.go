package textparse

import "testing"

func TestExperienceMidpoint(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{in: "2 to 8 Years", want: 5, wantOK: true},
		{in: "0 to 15 Years", want: 7.5, wantOK: true},
		{in: "3-5 yrs", want: 4, wantOK: true},
		{in: "5 Years", wantOK: false},
		{in: "1 to 2 to 3 Years", wantOK: false},
		{in: "", wantOK: false},
		{in: "Senior", wantOK: false},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()
			got, ok := ExperienceMidpoint(tc.in)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if ok && got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSalaryMidpoint(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{in: "$50K-$100K", want: 75, wantOK: true},
		{in: "$56K-$116K", want: 86, wantOK: true},
		{in: "$59.5K – $99.5K", want: 79.5, wantOK: true},
		{in: "60K to 90K", want: 75, wantOK: true},
		{in: "$1,000-$2,000 monthly", want: 1500, wantOK: true},
		{in: "$50K", wantOK: false},
		{in: "Competitive-negotiable", wantOK: false},
		{in: "$50K-$100K-$150K", wantOK: false},
		{in: "$50K - $100K (2-3 bonus)", wantOK: false},
		{in: "$50K - $100K + 10% bonus", wantOK: false},
		{in: "60K to 90K-120K", wantOK: false},
		{in: "", wantOK: false},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()
			got, ok := SalaryMidpoint(tc.in)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if ok && got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSalaryBounds(t *testing.T) {
	t.Parallel()

	lo, hi, ok := SalaryBounds("$50K-$100K")
	if !ok || lo != 50 || hi != 100 {
		t.Fatalf("unexpected bounds: %v %v %v", lo, hi, ok)
	}
}
