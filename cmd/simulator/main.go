package main

import (
	"flag"
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Global flags
	apiURL := "http://localhost:3030"
	if envURL := os.Getenv("API_URL"); envURL != "" {
		apiURL = envURL
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "full":
		fullCmd(apiURL, args)
	case "populate":
		populateCmd(apiURL, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Draft Simulator - Development tool for exercising draft lobbies

USAGE:
  simulator <command> [options]

COMMANDS:
  full      Create a lobby, fill it with bots, start the draft and let the
            bots pick until it finishes
  populate  Add bots to an existing lobby without starting it
  help      Show this help message

ENVIRONMENT:
  API_URL   Backend API URL (default: http://localhost:3030)

EXAMPLES:
  # Run a fully automated 4-bot draft of the "gen9" set
  simulator full --set=gen9 --count=4

  # Create a lobby with 2 bots and leave a seat open for you
  simulator full --set=gen9 --count=2 --wait

  # Add 3 bots to a lobby you already created
  simulator populate --lobby=123456789 --count=3`)
}

func fullCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("full", flag.ExitOnError)
	setName := fs.String("set", "", "Draft set to play (required)")
	count := fs.Int("count", 4, "Number of bot players (1-6)")
	wait := fs.Bool("wait", false, "Populate the lobby but do not start; leaves seats open")
	fs.Parse(args)

	if *setName == "" {
		fmt.Println("Error: --set is required")
		os.Exit(1)
	}
	if *count < 1 || *count > 6 {
		fmt.Println("Error: --count must be between 1 and 6")
		os.Exit(1)
	}

	client := NewAPIClient(apiURL)

	fmt.Println("=== Draft Simulator: Full Flow ===")
	fmt.Println()

	fmt.Printf("Creating lobby for set %q... ", *setName)
	lobby, err := client.NewDraft(*setName)
	if err != nil {
		fmt.Printf("FAILED\n  Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("OK (lobby: %s)\n", lobby.LobbyID)

	fmt.Printf("Adding %d bots:\n", *count)
	bots := joinBots(client, lobby.LobbyID, *count)

	if *wait {
		fmt.Println()
		fmt.Println("=========================================")
		fmt.Println("  LOBBY WAITING FOR PLAYERS")
		fmt.Println("=========================================")
		fmt.Println()
		fmt.Printf("  Join URL: %s%s\n", apiURL, lobby.JoinURL)
		fmt.Println()
		fmt.Println("  Join with a player name, then POST the")
		fmt.Println("  start_game command from your draft page.")
		return
	}

	fmt.Print("Starting the draft... ")
	if err := client.StartGame(bots[0]); err != nil {
		fmt.Printf("FAILED\n  Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("OK")

	fmt.Println("Bots drafting:")
	picks, err := runBots(client, bots)
	if err != nil {
		fmt.Printf("  Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("=========================================")
	fmt.Println("  DRAFT COMPLETE")
	fmt.Println("=========================================")
	fmt.Println()
	fmt.Printf("  Lobby:       %s\n", lobby.LobbyID)
	fmt.Printf("  Total picks: %d\n", picks)
	for _, bot := range bots {
		state, err := client.GetState(bot)
		if err != nil {
			continue
		}
		fmt.Printf("  %-10s %d items\n", bot.Name, len(state.RawPicks))
	}
}

func populateCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("populate", flag.ExitOnError)
	lobbyID := fs.String("lobby", "", "Lobby id (required)")
	count := fs.Int("count", 3, "Number of bots to add")
	fs.Parse(args)

	if *lobbyID == "" {
		fmt.Println("Error: --lobby is required")
		fmt.Println("\nUsage: simulator populate --lobby=123456789 [--count=3]")
		os.Exit(1)
	}

	client := NewAPIClient(apiURL)

	fmt.Printf("Adding %d bots to lobby %s...\n\n", *count, *lobbyID)
	joinBots(client, *lobbyID, *count)

	fmt.Println()
	fmt.Println("Done! Start the draft from any player's page.")
}

func joinBots(client *APIClient, lobbyID string, count int) []Bot {
	bots := make([]Bot, 0, count)
	for i := 0; i < count; i++ {
		name := fmt.Sprintf("Bot%d", i+1)
		bot, err := client.JoinDraft(lobbyID, name)
		if err != nil {
			fmt.Printf("  [%d/%d] FAILED to join: %v\n", i+1, count, err)
			os.Exit(1)
		}
		bots = append(bots, bot)
		fmt.Printf("  [%d/%d] %s joined\n", i+1, count, name)
	}
	return bots
}

// runBots drives every bot until the draft finishes. Each iteration a bot
// with a pack picks its first item; bots with nothing to do long-poll so
// the loop keeps pace with deadline auto-picks without busy-waiting.
func runBots(client *APIClient, bots []Bot) (int, error) {
	picks := 0
	for {
		allDone := true
		idle := true
		for _, bot := range bots {
			state, err := client.GetState(bot)
			if err != nil {
				return picks, err
			}
			if !state.DraftIsFinished {
				allDone = false
			}
			if len(state.PendingPicks) == 0 {
				continue
			}
			if err := client.Pick(bot, state.PendingPicks[0].DraftID); err != nil {
				return picks, err
			}
			picks++
			idle = false
		}
		if allDone {
			return picks, nil
		}
		if idle {
			// Nothing pickable: wait for the server to change someone's view.
			if err := client.Poll(bots[0]); err != nil {
				return picks, err
			}
		}
	}
}
