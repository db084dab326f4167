// Package proof models the signed proof-of-delivery token handed to the
// requester at order creation and the scan records written whenever a courier
// presents it at the door.
package proof
