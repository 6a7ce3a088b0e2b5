// Command admin is a thin CLI over the same service layer the API uses:
// award-credit, freeze-user, unfreeze-user, and reset-economy.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"timebank/internal/config"
	"timebank/internal/db"
	"timebank/internal/services"
	"timebank/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg := config.Load()
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer database.Close()

	service := services.NewTimebankService(store.NewSnapshotStore(database), nil, cfg.SignupBonus)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch os.Args[1] {
	case "award-credit":
		fs := flag.NewFlagSet("award-credit", flag.ExitOnError)
		userID := fs.String("user", "", "target user id")
		amount := fs.Int64("amount", 0, "time credits to award")
		reason := fs.String("reason", "administrative award", "reason recorded with the action")
		_ = fs.Parse(os.Args[2:])
		if *userID == "" || *amount <= 0 {
			fs.Usage()
			os.Exit(2)
		}
		transactionID, err := service.AwardCredits(ctx, *userID, "admin-cli", *amount, *reason)
		if err != nil {
			log.Fatalf("award failed: %v", err)
		}
		fmt.Printf("awarded %d TC to %s (transaction %s)\n", *amount, *userID, transactionID)

	case "freeze-user":
		fs := flag.NewFlagSet("freeze-user", flag.ExitOnError)
		userID := fs.String("user", "", "target user id")
		reason := fs.String("reason", "", "freeze reason")
		_ = fs.Parse(os.Args[2:])
		if *userID == "" || *reason == "" {
			fs.Usage()
			os.Exit(2)
		}
		if err := service.FreezeUser(ctx, *userID, "admin-cli", *reason); err != nil {
			log.Fatalf("freeze failed: %v", err)
		}
		fmt.Printf("froze %s\n", *userID)

	case "unfreeze-user":
		fs := flag.NewFlagSet("unfreeze-user", flag.ExitOnError)
		userID := fs.String("user", "", "target user id")
		reason := fs.String("reason", "appeal accepted", "unfreeze reason")
		_ = fs.Parse(os.Args[2:])
		if *userID == "" {
			fs.Usage()
			os.Exit(2)
		}
		if err := service.UnfreezeUser(ctx, *userID, "admin-cli", *reason); err != nil {
			log.Fatalf("unfreeze failed: %v", err)
		}
		fmt.Printf("unfroze %s\n", *userID)

	case "reset-economy":
		fs := flag.NewFlagSet("reset-economy", flag.ExitOnError)
		confirm := fs.Bool("confirm", false, "required; wipes every user, gig, and transaction")
		_ = fs.Parse(os.Args[2:])
		if !*confirm {
			log.Fatal("reset-economy requires -confirm")
		}
		if err := service.ResetEconomy(ctx); err != nil {
			log.Fatalf("reset failed: %v", err)
		}
		fmt.Println("economy reset")

	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: admin <award-credit|freeze-user|unfreeze-user|reset-economy> [flags]")
	os.Exit(2)
}
