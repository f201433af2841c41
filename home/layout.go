// Package home resolves the on-disk layout of a user's shuffle credentials and
// archives superseded credentials.
//
// Every path is derived from an explicit home directory; nothing here looks up
// the process owner's home directory.
//
//	<home>/.shuffle/
//	  nodeconfig/mint.key         root (mint) account key
//	  nodeconfig/0/node.yaml      local node configuration
//	  accounts/                   archive root
//	  accounts/latest/dev.key     current private key
//	  accounts/latest/address     current address
//	  accounts/<unix seconds>/    archived credential snapshots
package home

import (
	"path/filepath"
)

const (
	DirName        = ".shuffle"
	KeyFileName    = "dev.key"
	AddrFileName   = "address"
	LatestDirName  = "latest"
	AccountsDir    = "accounts"
	NodeConfigDir  = "nodeconfig"
	RootKeyName    = "mint.key"
	NodeConfigName = "node.yaml"
)

// Layout holds every path of a credential home. It is recomputed on demand
// and never cached beyond the process.
type Layout struct {
	Home              string
	ShufflePath       string
	RootKeyPath       string
	NodeConfigPath    string
	AccountsPath      string
	LatestPath        string
	LatestKeyPath     string
	LatestAddressPath string
}

// Resolve computes the layout rooted at homeDir. It performs no I/O.
func Resolve(homeDir string) Layout {
	shuffle := filepath.Join(homeDir, DirName)
	accounts := filepath.Join(shuffle, AccountsDir)
	latest := filepath.Join(accounts, LatestDirName)
	return Layout{
		Home:              homeDir,
		ShufflePath:       shuffle,
		RootKeyPath:       filepath.Join(shuffle, NodeConfigDir, RootKeyName),
		NodeConfigPath:    filepath.Join(shuffle, NodeConfigDir, "0", NodeConfigName),
		AccountsPath:      accounts,
		LatestPath:        latest,
		LatestKeyPath:     filepath.Join(latest, KeyFileName),
		LatestAddressPath: filepath.Join(latest, AddrFileName),
	}
}
