// Command billingctl runs operator tasks against the billing store.
package main

func main() {
	Execute()
}
