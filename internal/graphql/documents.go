package graphql

const accountFields = `
fragment AccountFields on Account {
  depositsPerYear
  id
  name
}
`

const fundFields = `
fragment FundFields on Fund {
  icon
  id
  name
}
`

const MyAccountDocument = `
query MyAccount {
  myAccount {
    ...AccountFields
    funds {
      ...FundFields
    }
  }
}
` + accountFields + fundFields

const UpdateAccountDocument = `
mutation UpdateAccount($input: AccountInput!) {
  updateAccount(input: $input) {
    ...AccountFields
  }
}
` + accountFields

const CreateFundDocument = `
mutation CreateFund($accountId: ID!, $input: FundInput!) {
  createFund(accountId: $accountId, input: $input) {
    ...FundFields
  }
}
` + fundFields

const LoginDocument = `
mutation Login($username: String!) {
  login(username: $username) {
    id
  }
}
`

const LogoutDocument = `
mutation Logout {
  logout
}
`
