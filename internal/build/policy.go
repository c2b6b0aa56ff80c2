package build

import (
	"fmt"
	"os"
	"path/filepath"
)

// htaccess is the cache and security policy served alongside the built
// site: compression by content type, 1-year caching for hashed assets,
// 1-day caching for HTML/XML, baseline security response headers, and
// an HTTP-to-HTTPS redirect.
const htaccess = `# Enable compression
<IfModule mod_deflate.c>
    AddOutputFilterByType DEFLATE text/plain
    AddOutputFilterByType DEFLATE text/html
    AddOutputFilterByType DEFLATE text/xml
    AddOutputFilterByType DEFLATE text/css
    AddOutputFilterByType DEFLATE application/xml
    AddOutputFilterByType DEFLATE application/xhtml+xml
    AddOutputFilterByType DEFLATE application/rss+xml
    AddOutputFilterByType DEFLATE application/javascript
    AddOutputFilterByType DEFLATE application/x-javascript
</IfModule>

# Leverage browser caching
<IfModule mod_expires.c>
    ExpiresActive on

    # Cache hashed assets for 1 year
    ExpiresByType text/css "access plus 1 year"
    ExpiresByType application/javascript "access plus 1 year"
    ExpiresByType image/png "access plus 1 year"
    ExpiresByType image/jpg "access plus 1 year"
    ExpiresByType image/jpeg "access plus 1 year"
    ExpiresByType image/gif "access plus 1 year"
    ExpiresByType image/svg+xml "access plus 1 year"

    # Cache HTML for 1 day
    ExpiresByType text/html "access plus 1 day"

    # Cache XML files for 1 day
    ExpiresByType application/xml "access plus 1 day"
    ExpiresByType text/xml "access plus 1 day"
</IfModule>

# Security headers
<IfModule mod_headers.c>
    Header always set X-Content-Type-Options nosniff
    Header always set X-Frame-Options DENY
    Header always set X-XSS-Protection "1; mode=block"
    Header always set Referrer-Policy "strict-origin-when-cross-origin"
    Header always set Permissions-Policy "accelerometer=(), camera=(), geolocation=(), gyroscope=(), magnetometer=(), microphone=(), payment=(), usb=()"
</IfModule>

# Redirect to HTTPS
<IfModule mod_rewrite.c>
    RewriteEngine On
    RewriteCond %{HTTPS} off
    RewriteRule ^(.*)$ https://%{HTTP_HOST}%{REQUEST_URI} [L,R=301]
</IfModule>
`

// writePolicy writes the .htaccess policy file into the output root.
func writePolicy(distDir string) error {
	path := filepath.Join(distDir, ".htaccess")
	if err := os.WriteFile(path, []byte(htaccess), 0644); err != nil {
		return fmt.Errorf("failed to write policy file %s: %w", path, err)
	}
	return nil
}
