package extract

import "testing"

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		want     int64
		wantRule string
		wantOK   bool
	}{
		{
			name:     "canonical post",
			text:     "نقد فردا: فروش 3,450,000 تومان",
			want:     3450000,
			wantRule: "cash-tomorrow-colon-sell-toman",
			wantOK:   true,
		},
		{
			name:     "persian digits",
			text:     "نقد فردا: فروش ۳,۴۵۰,۰۰۰ تومان",
			want:     3450000,
			wantRule: "cash-tomorrow-colon-sell-toman",
			wantOK:   true,
		},
		{
			name:     "arabic thousands separator",
			text:     "نقد فردا: فروش ۳٬۴۵۰٬۰۰۰ تومان",
			want:     3450000,
			wantRule: "cash-tomorrow-colon-sell-toman",
			wantOK:   true,
		},
		{
			name:     "whitespace runs and newlines",
			text:     "نقد   فردا:\n\tفروش  3,450,000   تومان",
			want:     3450000,
			wantRule: "cash-tomorrow-colon-sell-toman",
			wantOK:   true,
		},
		{
			name:     "sell before cash tomorrow",
			text:     "فروش نقد فردا: 3,460,000",
			want:     3460000,
			wantRule: "sell-cash-tomorrow-colon",
			wantOK:   true,
		},
		{
			name:     "cash tomorrow then sell on another line",
			text:     "مظنه نقد فردا\nقیمت فروش امروز 3,470,000",
			want:     3470000,
			wantRule: "cash-tomorrow-then-sell",
			wantOK:   true,
		},
		{
			name:     "at price then cash tomorrow",
			text:     "با قیمت 3,480,000 فروش نقد فردا",
			want:     3480000,
			wantRule: "at-price-then-cash-tomorrow",
			wantOK:   true,
		},
		{
			name:     "per mesghal then cash tomorrow",
			text:     "هر مثقال 3,490,000 فروش نقد فردا",
			want:     3490000,
			wantRule: "per-mesghal-then-cash-tomorrow",
			wantOK:   true,
		},
		{
			name:     "sell colon then cash tomorrow",
			text:     "فروش: 3,500,000 برای نقد فردا",
			want:     3500000,
			wantRule: "sell-colon-then-cash-tomorrow",
			wantOK:   true,
		},
		{
			name:     "zero is a price",
			text:     "نقد فردا: فروش 0 تومان",
			want:     0,
			wantRule: "cash-tomorrow-colon-sell-toman",
			wantOK:   true,
		},
		{
			name:   "missing cash tomorrow keyword",
			text:   "فروش 3,450,000 تومان",
			wantOK: false,
		},
		{
			name:   "missing sell keyword",
			text:   "نقد فردا 3,450,000 تومان",
			wantOK: false,
		},
		{
			name:   "keyword without space is not the keyword",
			text:   "نقدفردا: فروش 3,450,000 تومان",
			wantOK: false,
		},
		{
			name:   "keywords but no number",
			text:   "نقد فردا: فروش تماس بگیرید",
			wantOK: false,
		},
		{
			name:   "overflowing number",
			text:   "نقد فردا: فروش 99999999999999999999 تومان",
			wantOK: false,
		},
		{
			name:   "empty",
			text:   "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rule, ok := Match(tt.text)
			if ok != tt.wantOK {
				t.Fatalf("Match(%q) ok = %v, want %v (price %d, rule %q)", tt.text, ok, tt.wantOK, got, rule)
			}
			if !ok {
				return
			}
			if got != tt.want {
				t.Errorf("Match(%q) price = %d, want %d", tt.text, got, tt.want)
			}
			if rule != tt.wantRule {
				t.Errorf("Match(%q) rule = %q, want %q", tt.text, rule, tt.wantRule)
			}
		})
	}
}

func TestExtract_RulePriority(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		want     int64
		wantRule string
	}{
		{
			// "cash-tomorrow-then-sell" would also match and capture 9
			name:     "sell cash tomorrow colon beats cash tomorrow then sell",
			text:     "فروش نقد فردا: 3,460,000 فروش 9",
			want:     3460000,
			wantRule: "sell-cash-tomorrow-colon",
		},
		{
			// "at-price-then-cash-tomorrow" would capture 1,000
			name:     "cash tomorrow then sell beats at price",
			text:     "با قیمت 1,000 نقد فردا فروش 2,000",
			want:     2000,
			wantRule: "cash-tomorrow-then-sell",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rule, ok := Match(tt.text)
			if !ok {
				t.Fatalf("Match(%q) found no price", tt.text)
			}
			if got != tt.want || rule != tt.wantRule {
				t.Errorf("Match(%q) = (%d, %q), want (%d, %q)", tt.text, got, rule, tt.want, tt.wantRule)
			}
		})
	}
}

func TestExtract_ParseFailureFallsThrough(t *testing.T) {
	// the first two matching rules capture ",,,", the next one a real number
	text := "نقد فردا: فروش ,,, تومان با قیمت 3,450,000 نقد فردا"

	got, rule, ok := Match(text)
	if !ok {
		t.Fatal("expected a price")
	}
	if got != 3450000 {
		t.Errorf("price = %d, want 3450000", got)
	}
	if rule != "at-price-then-cash-tomorrow" {
		t.Errorf("rule = %q, want at-price-then-cash-tomorrow", rule)
	}
}

func TestExtract_Idempotent(t *testing.T) {
	texts := []string{
		"نقد فردا: فروش 3,450,000 تومان",
		"هر مثقال ۳٬۴۹۰٬۰۰۰ فروش نقد فردا",
		"سلام",
		"",
	}

	for _, text := range texts {
		p1, ok1 := Extract(text)
		p2, ok2 := Extract(text)
		if p1 != p2 || ok1 != ok2 {
			t.Errorf("Extract(%q) not stable: (%d, %v) then (%d, %v)", text, p1, ok1, p2, ok2)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"۰۱۲۳۴۵۶۷۸۹", "0123456789"},
		{"٠١٢٣٤٥٦٧٨٩", "0123456789"},
		{"۳٬۴۵۰", "3,450"},
		{"a  b\n\nc\t d", "a b c d"},
		{"  leading and trailing  ", "leading and trailing"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func BenchmarkExtract(b *testing.B) {
	text := "📣 مظنه امروز\nنقد فردا: فروش ۳,۴۵۰,۰۰۰ تومان\nخرید ۳,۴۴۰,۰۰۰ تومان"
	for i := 0; i < b.N; i++ {
		Extract(text)
	}
}
