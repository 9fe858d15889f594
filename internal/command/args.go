package command

import (
	"fmt"
	"strconv"
)

// argString and friends are small bounds-checked accessors over a raw
// [][]byte argument vector, used by every handler to pull out positional
// arguments without repeating the same index check everywhere.

func argString(args [][]byte, i int) (string, error) {
	if i > len(args)-1 {
		return "", fmt.Errorf("trying to get not existing argument: %d > %d", i, len(args)-1)
	}
	return string(args[i]), nil
}

func argBytes(args [][]byte, i int) ([]byte, error) {
	if i > len(args)-1 {
		return nil, fmt.Errorf("trying to get not existing argument: %d > %d", i, len(args)-1)
	}
	return args[i], nil
}

func argInt(args [][]byte, i int) (int64, error) {
	s, err := argString(args, i)
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("args[%d] isn't int: %s", i, err)
	}
	return n, nil
}

func argUpper(args [][]byte, i int) (string, error) {
	s, err := argString(args, i)
	if err != nil {
		return "", err
	}
	return upperASCII(s), nil
}

func upperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}
