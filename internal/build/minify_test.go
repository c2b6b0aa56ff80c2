package build

import "testing"

func TestMinify(t *testing.T) {
	t.Run("collapses whitespace runs", func(t *testing.T) {
		got := Minify("<p>hello   \n\t world</p>")
		want := "<p>hello world</p>"
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("removes inter-tag whitespace", func(t *testing.T) {
		got := Minify("<div>\n  <p>x</p>\n</div>")
		want := "<div><p>x</p></div>"
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("strips comments", func(t *testing.T) {
		got := Minify("<p>a</p><!-- note\nspanning lines --><p>b</p>")
		want := "<p>a</p><p>b</p>"
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("trims the result", func(t *testing.T) {
		got := Minify("   <p>x</p>   ")
		want := "<p>x</p>"
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})
}
