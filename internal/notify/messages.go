package notify

import "fmt"

// LeaseAssignedSubject is the subject of the tenant assignment notice
const LeaseAssignedSubject = "New Property Lease Assigned"

// LeaseAssignedBody tells a tenant they were bound to a property
func LeaseAssignedBody(name, address string) string {
	return fmt.Sprintf(`Dear %s,

You have been assigned to a new property at %s.

Please review the following terms and conditions:

1. Lease Term and Rent
   - Monthly rent payment is due on the 1st of each month
   - Late payments will incur a 5%% fee after the 5th

2. Security Deposit
   - Equal to one month's rent
   - Returned within 30 days of move-out, less damages

3. Maintenance
   - Report all maintenance issues promptly

4. Property Use
   - Residential use only
   - No subletting without permission

Please sign into your tenant portal to complete the process.

Best regards,
Property Sync Management`, name, address)
}

// NewPropertySubject is the subject of the listing broadcast
const NewPropertySubject = "New Property Added to Property Sync"

// NewPropertyBody announces a new listing to a tenant
func NewPropertyBody(name, title, address, price, description string) string {
	return fmt.Sprintf(`Dear %s,

A new property has been added to Property Sync:

Property Details:
- Title: %s
- Address: %s
- Monthly Rent: %s

Description:
%s

Check out the available properties in your tenant portal.

Best regards,
Property Sync Management`, name, title, address, price, description)
}

// PasswordResetSubject is the subject of the reset link mail
const PasswordResetSubject = "Password Reset Request"

// PasswordResetBody carries the reset link
func PasswordResetBody(link string) string {
	return fmt.Sprintf(`You are receiving this email because you (or someone else) has requested a password reset.
Please click on the following link to reset your password:
%s

If you did not request this, please ignore this email.
This link will expire in 10 minutes.`, link)
}
