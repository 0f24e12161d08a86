package rpc

// Nil-safe getters, shaped like generated message code, so interceptors can
// read the ledger context of a request without knowing its type.

func (x *GroupRequest) GetGroupID() string {
	if x == nil {
		return ""
	}
	return x.GroupID
}

func (x *AddMemberRequest) GetGroupID() string {
	if x == nil {
		return ""
	}
	return x.GroupID
}

func (x *AddContactRequest) GetGroupID() string {
	if x == nil {
		return ""
	}
	return x.GroupID
}

func (x *SetWeightRequest) GetGroupID() string {
	if x == nil {
		return ""
	}
	return x.GroupID
}

func (x *ExpenseRequest) GetGroupID() string {
	if x == nil {
		return ""
	}
	return x.GroupID
}

func (x *SaveExpenseRequest) GetGroupID() string {
	if x == nil {
		return ""
	}
	return x.GroupID
}

func (x *SplitBySpecifiedSharesRequest) GetGroupID() string {
	if x == nil {
		return ""
	}
	return x.GroupID
}

func (x *MarkSharePaidRequest) GetGroupID() string {
	if x == nil {
		return ""
	}
	return x.GroupID
}

func (x *RequestSharePaymentRequest) GetGroupID() string {
	if x == nil {
		return ""
	}
	return x.GroupID
}

func (x *RejectPaymentRequest) GetGroupID() string {
	if x == nil {
		return ""
	}
	return x.GroupID
}

func (x *MemberRequest) GetGroupID() string {
	if x == nil {
		return ""
	}
	return x.GroupID
}

func (x *ExpenseRequest) GetExpenseID() string {
	if x == nil {
		return ""
	}
	return x.ExpenseID
}

func (x *SaveExpenseRequest) GetExpenseID() string {
	if x == nil {
		return ""
	}
	return x.ExpenseID
}

func (x *SplitBySpecifiedSharesRequest) GetExpenseID() string {
	if x == nil {
		return ""
	}
	return x.ExpenseID
}

func (x *MarkSharePaidRequest) GetShareID() string {
	if x == nil {
		return ""
	}
	return x.ShareID
}

func (x *RequestSharePaymentRequest) GetShareID() string {
	if x == nil {
		return ""
	}
	return x.ShareID
}

func (x *RejectPaymentRequest) GetPaymentID() string {
	if x == nil {
		return ""
	}
	return x.PaymentID
}
