// Package contracts binds the SHINE token and the SHINE/ETH pool over a
// wallet.Provider using hand-written minimal ABIs.
package contracts

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ERC20 functions used by the swap client
const erc20ABI = `[
	{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"_owner","type":"address"},{"name":"_spender","type":"address"}],"name":"allowance","outputs":[{"name":"","type":"uint256"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"_spender","type":"address"},{"name":"_value","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"type":"function"}
]`

// ShineLP pool: two swap entry points and their events
const poolABI = `[
	{"inputs":[],"name":"swapETHForShine","outputs":[],"stateMutability":"payable","type":"function"},
	{"inputs":[{"name":"shineAmount","type":"uint256"}],"name":"swapShineForETH","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"anonymous":false,"inputs":[{"indexed":true,"name":"user","type":"address"},{"indexed":false,"name":"ethAmount","type":"uint256"},{"indexed":false,"name":"shineAmount","type":"uint256"}],"name":"SwapETHForShine","type":"event"},
	{"anonymous":false,"inputs":[{"indexed":true,"name":"user","type":"address"},{"indexed":false,"name":"shineAmount","type":"uint256"},{"indexed":false,"name":"ethAmount","type":"uint256"}],"name":"SwapShineForETH","type":"event"}
]`

const (
	MethodSwapETHForShine = "swapETHForShine"
	MethodSwapShineForETH = "swapShineForETH"

	EventSwapETHForShine = "SwapETHForShine"
	EventSwapShineForETH = "SwapShineForETH"
)

var (
	ERC20ABI = mustParse(erc20ABI)
	PoolABI  = mustParse(poolABI)
)

func mustParse(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic("contracts: bad ABI: " + err.Error())
	}
	return parsed
}
