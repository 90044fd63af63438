// Command token prints a signed bearer token for local testing and operations.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"communityevents/config"
	"communityevents/internal/adapters/auth"

	"github.com/google/uuid"
)

func main() {
	userID := flag.String("user", "", "User UUID (token subject)")
	roles := flag.String("roles", "", "Comma-separated roles, e.g. admin")
	expiry := flag.Duration("exp", 24*time.Hour, "Token lifetime")
	outputJSON := flag.Bool("json", false, "Output as JSON")
	flag.Parse()

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "-user is required")
		flag.Usage()
		os.Exit(2)
	}
	parsed, err := uuid.Parse(*userID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "-user must be a UUID: %v\n", err)
		os.Exit(2)
	}
	*userID = parsed.String()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	var roleList []string
	for _, r := range strings.Split(*roles, ",") {
		if r = strings.TrimSpace(r); r != "" {
			roleList = append(roleList, r)
		}
	}

	token, err := auth.NewJWTIssuer(cfg.JWTSecret).Issue(*userID, roleList, *expiry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error signing token: %v\n", err)
		os.Exit(1)
	}

	if *outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(map[string]any{
			"access_token": token,
			"token_type":   "Bearer",
			"expires_in":   int(expiry.Seconds()),
			"user_id":      *userID,
			"roles":        roleList,
		})
		return
	}
	fmt.Println(token)
}
