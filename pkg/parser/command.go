package parser

import (
	"fmt"
	"regexp"
	"strings"

	"shine-swap/pkg/types"
)

var commandPattern = regexp.MustCompile(`^(\d*\.?\d*)\s+([A-Z]+)\s+TO\s+([A-Z]+)$`)

// ParseSwapCommand parses a natural language swap command
// Examples:
//   - "swap 0.1 ETH to SHINE"
//   - "250 SHINE to ETH"
//   - ".5 eth to shine"
func ParseSwapCommand(command string) (*types.SwapRequest, error) {
	command = strings.TrimSpace(strings.ToUpper(command))
	command = strings.TrimPrefix(command, "SWAP ")

	matches := commandPattern.FindStringSubmatch(command)
	if matches == nil || matches[1] == "" || matches[1] == "." {
		return nil, fmt.Errorf("invalid swap command format. Expected: '<amount> <token> to <token>' (e.g., '0.1 ETH to SHINE')")
	}

	dir, err := types.DirectionFromSymbols(NormalizeTokenSymbol(matches[2]), NormalizeTokenSymbol(matches[3]))
	if err != nil {
		return nil, err
	}

	return &types.SwapRequest{
		Amount:    matches[1],
		Direction: dir,
	}, nil
}

// ParsePair parses "<FROM> to <TO>" without an amount, as used by quote --watch
func ParsePair(args []string) (types.Direction, error) {
	pair := strings.Fields(strings.ToUpper(strings.Join(args, " ")))
	if len(pair) != 3 || pair[1] != "TO" {
		return 0, fmt.Errorf("invalid pair. Expected: '<token> to <token>' (e.g., 'ETH to SHINE')")
	}
	return types.DirectionFromSymbols(NormalizeTokenSymbol(pair[0]), NormalizeTokenSymbol(pair[2]))
}

// NormalizeTokenSymbol normalizes token symbols to standard format
func NormalizeTokenSymbol(symbol string) string {
	symbol = strings.TrimSpace(strings.ToUpper(symbol))

	aliases := map[string]string{
		"WETH":       "ETH",
		"SEPOLIAETH": "ETH",
	}

	if normalized, exists := aliases[symbol]; exists {
		return normalized
	}

	return symbol
}
