package handler

import "marketplace/service"

const (
	msgWrongArgCount   = "Wrong number of arguments: this command takes %d argument(s)."
	msgAtLeastArgs     = "Not enough arguments: this command takes at least %d argument(s)."
	msgInvalidArgs     = "Invalid arguments."
	msgAlreadySignedIn = "You are already signed in."
	msgOtherSignedIn   = "Another seller is signed in. Sign out first."
	msgNotAuthorized   = "You need to sign in first."
	msgUnknownCommand  = "Unknown command. Type help to list the commands."
	msgBadAmount       = "Amount must be a positive integer."
	msgBadPlanID       = "Plan id must be an integer."
	msgBadDirection    = "Use add or remove."
	msgBye             = "Bye."
)

var resultMessages = map[service.Code]string{
	service.CodeSuccess:              "Command executed successfully.",
	service.CodeDuplicateIdentity:    "A seller with this id already exists.",
	service.CodeInvalidCredentials:   "Seller id or password is wrong.",
	service.CodeSessionLimitReached:  "Your plan does not allow more parallel sessions.",
	service.CodeDowngradeUnavailable: "You cannot move to a plan with fewer parallel sessions.",
	service.CodeNotFound:             "Requested item was not found.",
	service.CodeInvalidQuantity:      "Stock cannot drop below zero.",
	service.CodeStockUnavailable:     "Not enough stock.",
	service.CodeWeightLimitExceeded:  "The cart would exceed the 15 kg weight limit.",
	service.CodeNoOpenCart:           "The customer has no open cart.",
	service.CodeEmptyCart:            "The cart is empty.",
	service.CodeInvalidOrderState:    "Only received orders can be shipped.",
	service.CodeOperationFailed:      "The command could not be executed.",
}

func resultMessage(err error) string {
	_, code := service.Outcome(err)
	if msg, ok := resultMessages[code]; ok {
		return msg
	}
	return resultMessages[service.CodeOperationFailed]
}

var helpText = []string{
	"",
	"*** Please enter one of the following commands ***",
	"> help",
	"> sign_up <seller_id> <password> <plan_id>",
	"> sign_in <seller_id> <password>",
	"> sign_out",
	"> show_plans",
	"> show_subscription",
	"> change_stock <product_id> <add or remove> <amount>",
	"> subscribe <plan_id>",
	"> ship <order_id> [<order_id> ...]",
	"> show_cart <customer_id>",
	"> change_cart <customer_id> <product_id> <seller_id> <add or remove> <amount>",
	"> purchase_cart <customer_id>",
	"> quit",
}
