package logger

import "testing"

func TestOperationFromSQL(t *testing.T) {
	cases := map[string]string{
		"SELECT * FROM products":                      "SELECT",
		"  insert into orders (id) values (1)":        "INSERT",
		"WITH x AS (SELECT 1) UPDATE carts SET a = 1": "SELECT",
		"":                                            "UNKNOWN",
		"VACUUM":                                      "UNKNOWN",
	}
	for sql, want := range cases {
		if got := operationFromSQL(sql); got != want {
			t.Fatalf("operationFromSQL(%q) = %q, want %q", sql, got, want)
		}
	}
}
