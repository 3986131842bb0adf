package portal

import (
	_ "embed"
	"strings"
)

// portalPage is the static configuration page served at GET /. It is
// shipped unmodified except for the reset-password fragment, spliced in
// at the placeholder when authenticated reset is configured.
//
//go:embed assets/portal.html
var portalPage string

// authFragmentPlaceholder marks where the reset-password fragment goes.
const authFragmentPlaceholder = "<!-- AUTH_FRAGMENT -->"

// authFragment is the advanced-options block offering an optional reset
// password, shown only when authenticated HTTP reset is enabled.
const authFragment = `
                <button type="button" class="toggle-advanced" onclick="toggleAdvanced();">Advanced Options</button>

                <div id="advanced" class="advanced hidden">
                    <div class="form-group">
                        <label for="reset_password">Reset Password (Optional)</label>
                        <input type="password" id="reset_password" name="reset_password" placeholder="For remote device reset">
                    </div>
                </div>
`

// Page returns the configuration page, with the reset-password fragment
// included when withAuthFragment is set.
func Page(withAuthFragment bool) string {
	fragment := ""
	if withAuthFragment {
		fragment = authFragment
	}
	return strings.Replace(portalPage, authFragmentPlaceholder, fragment, 1)
}
