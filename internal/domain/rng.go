package domain

// RNG 抽象出亂數來源，方便在測試中固定結果。
type RNG interface {
	// IntN 回傳 [0, n) 之間的非負整數。
	IntN(n int) int
}
