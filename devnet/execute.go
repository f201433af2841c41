package devnet

import (
	"math"

	"shuffle.dev/shuffle/accountstate"
	"shuffle.dev/shuffle/keys"
	"shuffle.dev/shuffle/txn"
)

// apply runs tx against the ledger. The sender's sequence number advances
// whether the payload executes or aborts. Callers hold l.mu.
func (l *Ledger) apply(tx *txn.SignedTransaction) txn.Status {
	from := tx.Raw.Sender
	st := l.accounts[from]
	sender, err := st.AccountResource()
	if err != nil || sender == nil {
		return txn.AbortedWith(VMAccountDoesNotExist)
	}

	var status txn.Status
	switch p := tx.Raw.Payload.(type) {
	case txn.Transfer:
		status = l.transfer(from, sender, p)
	case txn.CreateAccount:
		status = l.createAccount(sender, p)
	default:
		status = txn.AbortedWith(VMUnsupportedOperation)
	}

	sender.SequenceNumber++
	st.SetAccountResource(sender)
	return status
}

// transfer mutates sender in place; the caller writes it back.
func (l *Ledger) transfer(from keys.Address, sender *accountstate.AccountResource, p txn.Transfer) txn.Status {
	if sender.Balance < p.Amount {
		return txn.AbortedWith(VMInsufficientBalance)
	}
	if p.Recipient == from {
		sender.SentEvents.Count++
		sender.ReceivedEvents.Count++
		return txn.StatusExecuted
	}
	st, ok := l.accounts[p.Recipient]
	if !ok {
		return txn.AbortedWith(VMAccountDoesNotExist)
	}
	recipient, err := st.AccountResource()
	if err != nil || recipient == nil {
		return txn.AbortedWith(VMAccountDoesNotExist)
	}

	if recipient.Balance > math.MaxUint64-p.Amount {
		return txn.AbortedWith(VMArithmeticError)
	}

	sender.Balance -= p.Amount
	sender.SentEvents.Count++
	recipient.Balance += p.Amount
	recipient.ReceivedEvents.Count++
	st.SetAccountResource(recipient)
	return txn.StatusExecuted
}

// createAccount funds the new account from sender's balance.
func (l *Ledger) createAccount(sender *accountstate.AccountResource, p txn.CreateAccount) txn.Status {
	if _, ok := l.accounts[p.Address]; ok {
		return txn.AbortedWith(VMAccountExists)
	}
	if len(p.AuthenticationKey) != keys.AuthenticationKeyLength ||
		keys.AddressFromAuthenticationKey(p.AuthenticationKey) != p.Address {
		return txn.AbortedWith(VMInvalidAuthKey)
	}
	if sender.Balance < p.InitialBalance {
		return txn.AbortedWith(VMInsufficientBalance)
	}
	sender.Balance -= p.InitialBalance
	l.accounts[p.Address] = accountstate.FromAccountResource(newAccount(p.Address, p.AuthenticationKey, p.InitialBalance))
	return txn.StatusExecuted
}
