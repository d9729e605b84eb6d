// Package riskscan scores batches of card transactions for fraud risk.
//
// Records may use any of the common column spellings (amount, credit_card,
// transaction_date, ...); riskscan reconciles them into a fixed feature
// schema, asks a classifier for a fraud probability per record, and
// summarizes the batch into High, Medium and Low bands.
//
// Quick start:
//
//	s, err := riskscan.New(riskscan.WithModelDir("models/"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
//	report, err := s.ScoreFile(ctx, "transactions.csv")
//	fmt.Println(report.Distribution["High"])
//
// A Scanner is safe for concurrent use. Create once, reuse across requests.
package riskscan
