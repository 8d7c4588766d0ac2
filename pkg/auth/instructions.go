package auth

import (
	"fmt"
	"strings"
)

// ShowTokenGuide prints step-by-step instructions for obtaining a
// long-lived Instagram Graph API access token
func ShowTokenGuide() {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("📚 INSTAGRAM ACCESS TOKEN GUIDE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()

	fmt.Println("igsource reads your media through the Instagram Graph API.")
	fmt.Println("It needs a long-lived user access token for the account to source.")
	fmt.Println()

	fmt.Println("🧩 STEP 1: Create a Meta app")
	fmt.Println("   - Go to https://developers.facebook.com/apps")
	fmt.Println("   - Create an app and add the 'Instagram' product")
	fmt.Println("   - Add your Instagram account as an Instagram tester and accept the invite")
	fmt.Println()

	fmt.Println("🔑 STEP 2: Generate a token")
	fmt.Println("   - In the app dashboard open Instagram > API setup")
	fmt.Println("   - Click 'Generate token' next to your account")
	fmt.Println("   - Grant the instagram_business_basic permission (user_profile, user_media)")
	fmt.Println()

	fmt.Println("⏳ STEP 3: Make it long-lived")
	fmt.Println("   - Tokens from the dashboard are already long-lived (60 days)")
	fmt.Println("   - Short-lived tokens can be exchanged with:")
	fmt.Println("     GET https://graph.instagram.com/access_token")
	fmt.Println("         ?grant_type=ig_exchange_token&client_secret=...&access_token=...")
	fmt.Println()

	fmt.Println("💾 STEP 4: Store it")
	fmt.Println("   - Run 'igsource token login' and paste the token")
	fmt.Println("   - Or export " + TokenEnvVar + " for one-off runs and CI")
	fmt.Println()

	fmt.Println("💡 TIPS:")
	fmt.Println("   • Long-lived tokens expire after 60 days unless refreshed")
	fmt.Println("   • 'igsource token refresh' extends a token that is at least 24 hours old")
	fmt.Println("   • 'igsource token refresh --schedule' keeps refreshing on a cron schedule")
	fmt.Println()

	fmt.Println("⚠️  SECURITY WARNING:")
	fmt.Println("   • The token grants read access to your media")
	fmt.Println("   • NEVER commit it to a repository")
	fmt.Println("   • igsource stores it in the system keychain or an encrypted file")
	fmt.Println()
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println()
}

// ShowQuickTokenGuide shows a condensed version for experienced users
func ShowQuickTokenGuide() {
	fmt.Println("\n🔑 Quick Guide: developers.facebook.com → your app → Instagram → API setup → Generate token")
	fmt.Println("   Paste the long-lived token, or run 'igsource token guide' for detailed instructions")
}
