package domain

// Call es una invocación de contrato Starknet ya serializada. Una multicall
// es un []Call que la wallet firma como una sola transacción.
type Call struct {
	ContractAddress string   `json:"contractAddress"`
	Entrypoint      string   `json:"entrypoint"`
	Calldata        []string `json:"calldata"`
}

// Estados de ejecución de una transacción Starknet.
const (
	ExecutionSucceeded = "SUCCEEDED"
	ExecutionReverted  = "REVERTED"
)

// TxReceipt es el resultado confirmado de una transacción.
type TxReceipt struct {
	Hash            string
	ExecutionStatus string
	FinalityStatus  string
	RevertReason    string
}

// Succeeded devuelve true si la transacción se ejecutó sin revertir.
func (r TxReceipt) Succeeded() bool {
	return r.ExecutionStatus == ExecutionSucceeded
}
