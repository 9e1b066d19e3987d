package usecase

// Store key families. Every customer-scoped family shares the
// normalized customer identity as suffix.
const (
	keyBuffer      = "msgbuf:"
	keyLock        = "agent_lock:"
	keyCooldown    = "cooldown:"
	keySession     = "order_session:"
	keyCart        = "cart:"
	keyReceipt     = "receipt:"
	keyAddress     = "address:"
	keySuggestions = "suggestions:"
	keyCompleted   = "order_completed:"
	keyStockCache  = "stock_cache:"
	keyFailures    = "circuit:failures:"
	keyOpen        = "circuit:open:"
)

func bufferKey(customer string) string      { return keyBuffer + customer }
func lockKey(customer string) string        { return keyLock + customer }
func cooldownKey(customer string) string    { return keyCooldown + customer }
func sessionKey(customer string) string     { return keySession + customer }
func cartKey(customer string) string        { return keyCart + customer }
func receiptKey(customer string) string     { return keyReceipt + customer }
func addressKey(customer string) string     { return keyAddress + customer }
func suggestionsKey(customer string) string { return keySuggestions + customer }
func completedKey(customer string) string   { return keyCompleted + customer }
func stockCacheKey(term string) string      { return keyStockCache + term }
func failuresKey(service string) string     { return keyFailures + service }
func openKey(service string) string         { return keyOpen + service }
