package guess

// CodeLength is the number of digits in every secret and guess.
const CodeLength = 4

type Result struct {
	CorrectPosition int `json:"correctPosition"`
	CorrectNumber   int `json:"correctNumber"`
}

// IsWin reports whether every digit is in its place.
func (r Result) IsWin() bool {
	return r.CorrectPosition == CodeLength
}

// Valid reports whether code is exactly four distinct decimal digits.
func Valid(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	var seen [10]bool
	for i := 0; i < len(code); i++ {
		c := code[i]
		if c < '0' || c > '9' {
			return false
		}
		if seen[c-'0'] {
			return false
		}
		seen[c-'0'] = true
	}
	return true
}

// Check compares guess against secret. CorrectNumber counts every digit
// value shared by both strings, bulls included, so it is never smaller
// than CorrectPosition.
func Check(guess, secret string) Result {
	var res Result
	var inGuess, inSecret [10]int

	n := min(len(guess), len(secret))
	for i := 0; i < n; i++ {
		if guess[i] == secret[i] {
			res.CorrectPosition++
		}
	}
	for i := 0; i < len(guess); i++ {
		if d := guess[i] - '0'; d <= 9 {
			inGuess[d]++
		}
	}
	for i := 0; i < len(secret); i++ {
		if d := secret[i] - '0'; d <= 9 {
			inSecret[d]++
		}
	}
	for d := range inGuess {
		res.CorrectNumber += min(inGuess[d], inSecret[d])
	}
	return res
}
