package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/academyhub/paycore/scripts/internal"
)

// Command represents a script that can be run
type Command struct {
	Name        string
	Description string
	Run         func() error
}

var commands = []Command{
	{
		Name:        "generate-key",
		Description: "Generate a new master encryption key",
		Run:         internal.GenerateEncryptionKey,
	},
	{
		Name:        "encrypt-setting",
		Description: "Encrypt a gateway setting value for storage",
		Run:         internal.EncryptSetting,
	},
	{
		Name:        "set-gateway-setting",
		Description: "Store an encrypted gateway override for an academy",
		Run:         internal.SetGatewaySetting,
	},
}

func main() {
	var (
		listCommands bool
		cmdName      string
		tenantID     string
		gateway      string
		key          string
		value        string
	)

	flag.BoolVar(&listCommands, "list", false, "List all available commands")
	flag.StringVar(&cmdName, "cmd", "", "Command to run")
	flag.StringVar(&tenantID, "tenant-id", "", "Tenant ID for operations")
	flag.StringVar(&gateway, "gateway", "", "Gateway name (paymob, easykash, tap)")
	flag.StringVar(&key, "key", "", "Gateway setting key")
	flag.StringVar(&value, "value", "", "Gateway setting value")

	flag.Parse()

	if listCommands {
		fmt.Println("Available commands:")
		for _, cmd := range commands {
			fmt.Printf("  %-22s %s\n", cmd.Name, cmd.Description)
		}
		return
	}

	if cmdName == "" {
		log.Fatal("Please specify a command to run using -cmd flag. Use -list to see available commands.")
	}

	if tenantID != "" {
		os.Setenv("TENANT_ID", tenantID)
	}
	if gateway != "" {
		os.Setenv("GATEWAY", gateway)
	}
	if key != "" {
		os.Setenv("SETTING_KEY", key)
	}
	if value != "" {
		os.Setenv("SETTING_VALUE", value)
	}

	for _, cmd := range commands {
		if cmd.Name == cmdName {
			if err := cmd.Run(); err != nil {
				log.Fatalf("Error running command %s: %v", cmdName, err)
			}
			return
		}
	}

	log.Fatalf("Unknown command: %s. Use -list to see available commands.", cmdName)
}
